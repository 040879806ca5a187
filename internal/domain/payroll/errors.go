package payroll

import "errors"

var (
	ErrInvalidPeriod        = errors.New("period must match YYYY-MM")
	ErrInvalidPayDate       = errors.New("pay date must be a valid date")
	ErrNoEmployees          = errors.New("employee selection must not be empty")
	ErrRunInProgress        = errors.New("a payroll run for this period is already in progress")
	ErrUnknownPaycode       = errors.New("assignment references an unknown paycode")
	ErrUnknownCalcKind      = errors.New("unknown calculation kind")
	ErrAssignmentOverlap    = errors.New("assignment effective interval overlaps an existing assignment")
	ErrAdjustmentNotPending = errors.New("only pending adjustments can be edited or cancelled")
	ErrPayslipNotReleased   = errors.New("payslip is not released")
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
)

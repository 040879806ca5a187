package payroll

const (
	CalcKindFixed      = "fixed"
	CalcKindPercentage = "percentage"
	CalcKindHourly     = "hourly_rate"
	CalcKindManual     = "manual"

	PaycodeTypeEarning   = "earning"
	PaycodeTypeDeduction = "deduction"

	RoleNone        = "none"
	RoleOvertime    = "overtime"
	RoleUnpaidLeave = "unpaid_leave"
	RoleBonus       = "bonus"

	AdjustmentPending   = "pending"
	AdjustmentApplied   = "applied"
	AdjustmentCancelled = "cancelled"

	ProcessingInProgress = "in_progress"
	ProcessingCompleted  = "completed"
	ProcessingFailed     = "failed"

	ReleaseDraft    = "draft"
	ReleaseReleased = "released"

	PayslipKindRegular    = "regular"
	PayslipKindAdjustment = "adjustment"

	RunStatusQueued    = "queued"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"

	RunTriggerManual    = "manual"
	RunTriggerScheduled = "scheduled"

	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"

	AnomalyStatusOpen      = "open"
	AnomalyStatusReviewed  = "reviewed"
	AnomalyStatusDismissed = "dismissed"

	EmployeeStatusActive = "active"

	RequestStatusAccepted = "accepted"
)

// Per-employee run outcomes, folded into the run counters.
const (
	OutcomeReleased = "released"
	OutcomeBlocked  = "blocked"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
)

// The 13th month bonus paycode, created on first December use if absent.
const (
	BonusPaycodeCode = "BONUS13"
	BonusPaycodeName = "13th Month Bonus"
)

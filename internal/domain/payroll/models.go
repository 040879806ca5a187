package payroll

import "time"

type Paycode struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Role      string    `json:"role"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

// Assignment binds an employee to a paycode for a half-open interval of
// periods [EffectiveFrom, EffectiveTo). A nil EffectiveTo means open-ended.
type Assignment struct {
	ID            string    `json:"id"`
	EmployeeID    string    `json:"employeeId"`
	PaycodeID     string    `json:"paycodeId"`
	CalcKind      string    `json:"calcKind"`
	Amount        float64   `json:"amount"`
	Percentage    float64   `json:"percentage"`
	HourlyRate    float64   `json:"hourlyRate"`
	Units         float64   `json:"units"`
	EffectiveFrom Period    `json:"effectiveFrom"`
	EffectiveTo   *Period   `json:"effectiveTo,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ActiveIn reports whether the assignment's effective interval contains p.
func (a Assignment) ActiveIn(p Period) bool {
	if p.Before(a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && !p.Before(*a.EffectiveTo) {
		return false
	}
	return true
}

// Overlaps reports whether two effective intervals intersect.
func (a Assignment) Overlaps(b Assignment) bool {
	if a.EffectiveTo != nil && !b.EffectiveFrom.Before(*a.EffectiveTo) {
		return false
	}
	if b.EffectiveTo != nil && !a.EffectiveFrom.Before(*b.EffectiveTo) {
		return false
	}
	return true
}

// Adjustment is a one-off earning or deduction for one employee in one
// period, independent of standing assignments. Only pending adjustments
// may be edited or cancelled; applied ones are immutable history.
type Adjustment struct {
	ID         string    `json:"id"`
	EmployeeID string    `json:"employeeId"`
	Period     Period    `json:"period"`
	Type       string    `json:"type"`
	Label      string    `json:"label"`
	Amount     float64   `json:"amount"`
	Status     string    `json:"status"`
	RunID      string    `json:"runId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Line struct {
	PaycodeID string  `json:"paycodeId,omitempty"`
	Code      string  `json:"code,omitempty"`
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	Visible   bool    `json:"visible"`
}

type Payslip struct {
	ID              string     `json:"id"`
	RunID           string     `json:"runId"`
	EmployeeID      string     `json:"employeeId"`
	Period          Period     `json:"period"`
	EmployeeName    string     `json:"employeeName"`
	EmployeeEmail   string     `json:"employeeEmail"`
	BankAccountEnc  []byte     `json:"-"`
	Kind            string     `json:"kind"`
	Processing      string     `json:"processingStatus"`
	Release         string     `json:"releaseStatus"`
	Earnings        []Line     `json:"earnings"`
	Deductions      []Line     `json:"deductions"`
	Gross           float64    `json:"gross"`
	TotalDeductions float64    `json:"totalDeductions"`
	Net             float64    `json:"net"`
	OvertimeHours   float64    `json:"overtimeHours"`
	UnpaidDays      int        `json:"unpaidDays"`
	CreatedAt       time.Time  `json:"createdAt"`
	ReleasedAt      *time.Time `json:"releasedAt,omitempty"`
}

type Finding struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Anomaly aggregates all findings for one payslip; at most one record
// exists per (period, run, employee, payslip).
type Anomaly struct {
	ID           string    `json:"id"`
	RunID        string    `json:"runId"`
	PayslipID    string    `json:"payslipId"`
	EmployeeID   string    `json:"employeeId"`
	Period       Period    `json:"period"`
	Severity     string    `json:"severity"`
	Findings     []Finding `json:"findings"`
	FindingCount int       `json:"findingCount"`
	Status       string    `json:"status"`
	DecidedBy    string    `json:"decidedBy,omitempty"`
	DecisionNote string    `json:"decisionNote,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Counters struct {
	EmployeesConsidered int `json:"employeesConsidered"`
	PayslipsCreated     int `json:"payslipsCreated"`
	Released            int `json:"released"`
	Blocked             int `json:"blocked"`
	Failed              int `json:"failed"`
	Skipped             int `json:"skipped"`
	AnomaliesFound      int `json:"anomaliesFound"`
	EmailsSent          int `json:"emailsSent"`
	AnomalyAlertsSent   int `json:"anomalyAlertsSent"`
}

type Run struct {
	ID          string     `json:"id"`
	Period      Period     `json:"period"`
	PayDate     time.Time  `json:"payDate"`
	Trigger     string     `json:"trigger"`
	Status      string     `json:"status"`
	Counters    Counters   `json:"counters"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Schedule is the singleton automatic-run configuration. It is loaded
// fresh on every tick and never cached across ticks.
type Schedule struct {
	Enabled           bool        `json:"enabled"`
	DayOfMonth        int         `json:"dayOfMonth"`
	RollBackToWorkday bool        `json:"rollBackToWorkday"`
	Holidays          []time.Time `json:"holidays"`
	RunHour           int         `json:"runHour"`
	RunMinute         int         `json:"runMinute"`
	OverridePeriod    *Period     `json:"overridePeriod,omitempty"`
	OverrideRunDate   *time.Time  `json:"overrideRunDate,omitempty"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// Employee is the identity snapshot the engine reads; the payslip copies
// it so later identity edits do not rewrite history.
type Employee struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	BankAccountEnc []byte
	Status         string
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

type OvertimeEntry struct {
	EmployeeID string
	WorkDate   time.Time
	Hours      float64
}

type LeaveWindow struct {
	StartDate time.Time
	EndDate   time.Time
}

// HistoryTotals is the released-payslip slice the anomaly detector
// compares against.
type HistoryTotals struct {
	Period Period
	Gross  float64
	Net    float64
}

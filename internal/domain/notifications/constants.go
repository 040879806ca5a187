package notifications

const (
	TypePayslipReleased = "payslip_released"
	TypePayrollAnomaly  = "payroll_anomaly"
)

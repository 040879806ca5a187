package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"payday/internal/domain/payroll"
)

// Dispatcher turns payroll notification intents into persisted
// notifications and emails. It satisfies payroll.Notifier; the engine
// never sees delivery mechanics.
type Dispatcher struct {
	svc *Service
}

func NewDispatcher(svc *Service) *Dispatcher {
	return &Dispatcher{svc: svc}
}

var _ payroll.Notifier = (*Dispatcher)(nil)

func (d *Dispatcher) PayslipReleased(ctx context.Context, slip *payroll.Payslip) error {
	title := fmt.Sprintf("Payslip for %s released", slip.Period.String())
	body := fmt.Sprintf("Your %s payslip for %s has been released. Net pay: %.2f.", slip.Kind, slip.Period.String(), slip.Net)

	userID, err := d.svc.store.UserIDForEmployee(ctx, slip.EmployeeID)
	if err != nil {
		// No login for this employee; the snapshot email still gets the mail.
		slog.Info("no user account for employee", "employeeId", slip.EmployeeID)
	} else if err := d.svc.store.CreateNotification(ctx, userID, TypePayslipReleased, title, body); err != nil {
		return err
	}

	if d.svc.mailer == nil || slip.EmployeeEmail == "" {
		return nil
	}
	return d.svc.mailer.Send(ctx, d.svc.from, slip.EmployeeEmail, title, body)
}

func (d *Dispatcher) AnomalyAlert(ctx context.Context, anomaly *payroll.Anomaly, slip *payroll.Payslip) error {
	title := fmt.Sprintf("Payroll anomaly for %s in %s", slip.EmployeeName, anomaly.Period.String())
	body := fmt.Sprintf("Payslip %s for %s was blocked with %d finding(s), severity %s. Review required before release.",
		slip.ID, slip.EmployeeName, anomaly.FindingCount, anomaly.Severity)

	ids, emails, err := d.svc.store.PayrollManagers(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("no payroll managers to alert")
	}
	for _, id := range ids {
		if err := d.svc.store.CreateNotification(ctx, id, TypePayrollAnomaly, title, body); err != nil {
			return err
		}
	}
	for _, to := range emails {
		d.svc.sendMail(ctx, to, title, body)
	}
	return nil
}

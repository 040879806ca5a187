package payroll

import (
	"context"
	"sync"
	"time"
)

// Notifier receives notification intents. Delivery and retry live with
// the dispatcher, not the engine; a payslip counts as released even when
// its notification fails.
type Notifier interface {
	PayslipReleased(ctx context.Context, slip *Payslip) error
	AnomalyAlert(ctx context.Context, anomaly *Anomaly, slip *Payslip) error
}

type Service struct {
	store         StoreAPI
	notifier      Notifier
	gate          *runGate
	now           func() time.Time
	onRunComplete func(Counters)
}

// OnRunComplete installs a hook invoked with the final counters of every
// completed run (metrics, alerting).
func (s *Service) OnRunComplete(fn func(Counters)) {
	s.onRunComplete = fn
}

func NewService(store StoreAPI, notifier Notifier) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		gate:     &runGate{active: map[string]bool{}},
		now:      time.Now,
	}
}

type RunRequest struct {
	Period      Period
	PayDate     time.Time
	EmployeeIDs []string
	Trigger     string
}

func (r RunRequest) validate() error {
	if r.Period.IsZero() {
		return ErrInvalidPeriod
	}
	if r.PayDate.IsZero() {
		return ErrInvalidPayDate
	}
	if len(r.EmployeeIDs) == 0 {
		return ErrNoEmployees
	}
	return nil
}

// UseLocation makes the engine's clock report wall time in loc. The
// scheduler compares against the configured local day and time.
func (s *Service) UseLocation(loc *time.Location) {
	s.now = func() time.Time { return time.Now().In(loc) }
}

// EligibleEmployees returns the employees a run for the period must
// consider: active, and either unpaid for the period or carrying at
// least one pending adjustment. Pure read.
func (s *Service) EligibleEmployees(ctx context.Context, p Period) ([]string, error) {
	return s.store.EligibleEmployeeIDs(ctx, p)
}

// SweepOrphans marks payslips left in-progress by a crashed run as
// failed once they are older than the given age.
func (s *Service) SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	return s.store.SweepOrphanPayslips(ctx, s.now().Add(-olderThan))
}

// runGate is the explicit run-level mutual exclusion: a second run for
// any period is rejected while one is executing in this process.
type runGate struct {
	mu     sync.Mutex
	active map[string]bool
}

func (g *runGate) TryAcquire(p Period) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[p.String()] {
		return false
	}
	g.active[p.String()] = true
	return true
}

func (g *runGate) Release(p Period) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, p.String())
}

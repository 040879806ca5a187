package metrics

import (
	"sync/atomic"
	"time"
)

// Collector aggregates process-local counters for the HTTP surface and
// the run engine.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	runsTotal        uint64
	payslipsReleased uint64
	payslipsBlocked  uint64
	payslipsFailed   uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordRun(released, blocked, failed int) {
	atomic.AddUint64(&c.runsTotal, 1)
	atomic.AddUint64(&c.payslipsReleased, uint64(released))
	atomic.AddUint64(&c.payslipsBlocked, uint64(blocked))
	atomic.AddUint64(&c.payslipsFailed, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":         avg,
		"payrollRunsTotal":      atomic.LoadUint64(&c.runsTotal),
		"payslipsReleasedTotal": atomic.LoadUint64(&c.payslipsReleased),
		"payslipsBlockedTotal":  atomic.LoadUint64(&c.payslipsBlocked),
		"payslipsFailedTotal":   atomic.LoadUint64(&c.payslipsFailed),
	}
}

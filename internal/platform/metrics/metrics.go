package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

// Collector keeps process-local request counters for GET /metrics.
type Collector struct {
	started         time.Time
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	authFailures    atomic.Uint64
	totalDurationUs atomic.Uint64
	maxDurationUs   atomic.Uint64
}

type Snapshot struct {
	UptimeSeconds     float64 `json:"uptimeSeconds"`
	RequestsTotal     uint64  `json:"requestsTotal"`
	ClientErrorsTotal uint64  `json:"clientErrorsTotal"`
	ServerErrorsTotal uint64  `json:"serverErrorsTotal"`
	RateLimitedTotal  uint64  `json:"rateLimitedTotal"`
	AuthFailuresTotal uint64  `json:"authFailuresTotal"`
	AvgDurationMs     float64 `json:"avgDurationMs"`
	MaxDurationMs     float64 `json:"maxDurationMs"`
}

func New() *Collector {
	return &Collector{started: time.Now()}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status >= http.StatusInternalServerError:
		c.serverErrors.Add(1)
	case status >= http.StatusBadRequest:
		c.clientErrors.Add(1)
	}
	switch status {
	case http.StatusTooManyRequests:
		c.rateLimited.Add(1)
	case http.StatusUnauthorized:
		c.authFailures.Add(1)
	}

	us := uint64(max(duration.Microseconds(), 0))
	c.totalDurationUs.Add(us)
	for {
		current := c.maxDurationUs.Load()
		if us <= current || c.maxDurationUs.CompareAndSwap(current, us) {
			break
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	total := c.totalRequests.Load()
	avg := float64(0)
	if total > 0 {
		avg = float64(c.totalDurationUs.Load()) / float64(total) / 1000
	}
	return Snapshot{
		UptimeSeconds:     time.Since(c.started).Seconds(),
		RequestsTotal:     total,
		ClientErrorsTotal: c.clientErrors.Load(),
		ServerErrorsTotal: c.serverErrors.Load(),
		RateLimitedTotal:  c.rateLimited.Load(),
		AuthFailuresTotal: c.authFailures.Load(),
		AvgDurationMs:     avg,
		MaxDurationMs:     float64(c.maxDurationUs.Load()) / 1000,
	}
}

// Package health provides Kubernetes-style liveness and readiness probes.
//
// Registered checks run on a shared ticker. Thresholds avoid flapping: a
// check must fail consecutively failureThreshold times before turning
// unhealthy, and succeed successThreshold times before recovering.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component, returning nil when healthy.
type CheckFunc func(ctx context.Context) error

const (
	defaultFailureThreshold = 3
	defaultSuccessThreshold = 1
)

// check holds the configuration and runtime state of a single probe.
// healthy and lastErr are read by HTTP handlers from arbitrary goroutines;
// the consecutive counters are only touched by the single run loop.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	fails int
	oks   int
}

func (c *check) run(ctx context.Context) {
	cctx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.fn(cctx)
	cancel()

	if err != nil {
		c.fails++
		c.oks = 0
		c.lastErr.Store(&err)
		if c.fails >= defaultFailureThreshold {
			c.healthy.Store(false)
		}
		return
	}

	c.oks++
	c.fails = 0
	if c.oks >= defaultSuccessThreshold {
		c.healthy.Store(true)
		c.lastErr.Store(nil)
	}
}

// Service aggregates liveness and readiness checks and serves probe
// endpoints.
type Service struct {
	mu        sync.Mutex
	liveness  []*check
	readiness []*check

	ready  atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an empty health Service. Checks start healthy and ready is
// false until SetReady(true).
func New() *Service {
	return &Service{}
}

func newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	c := &check{name: name, timeout: timeout, fn: fn}
	c.healthy.Store(true)
	return c
}

// AddLivenessCheck registers a liveness probe. Must be called before Start.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a readiness probe. Must be called before Start.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, newCheck(name, timeout, fn))
}

// Start runs all checks once immediately, then on the given interval until
// Stop or context cancellation.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	all := make([]*check, 0, len(s.liveness)+len(s.readiness))
	all = append(all, s.liveness...)
	all = append(all, s.readiness...)

	go func() {
		defer close(s.done)
		for _, c := range all {
			c.run(ctx)
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, c := range all {
					c.run(ctx)
				}
			}
		}
	}()
}

// Stop halts the background check loop and waits for it to exit.
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

// SetReady flips the overall readiness gate, independent of check results.
// Used to drain traffic during shutdown.
func (s *Service) SetReady(ready bool) {
	s.ready.Store(ready)
}

type probeResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func respond(w http.ResponseWriter, healthy bool, checks []*check) {
	resp := probeResponse{Status: "ok"}
	if len(checks) > 0 {
		resp.Checks = make(map[string]string, len(checks))
		for _, c := range checks {
			if c.healthy.Load() {
				resp.Checks[c.name] = "ok"
				continue
			}
			status := "unhealthy"
			if p := c.lastErr.Load(); p != nil && *p != nil {
				status = (*p).Error()
			}
			resp.Checks[c.name] = status
		}
	}

	code := http.StatusOK
	if !healthy {
		resp.Status = "unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// LiveEndpoint serves the liveness probe.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	healthy := true
	for _, c := range s.liveness {
		if !c.healthy.Load() {
			healthy = false
			break
		}
	}
	respond(w, healthy, s.liveness)
}

// ReadyEndpoint serves the readiness probe. It fails when readiness has been
// withdrawn via SetReady(false) or any readiness check is unhealthy.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	healthy := s.ready.Load()
	for _, c := range s.readiness {
		if !c.healthy.Load() {
			healthy = false
			break
		}
	}
	respond(w, healthy, s.readiness)
}

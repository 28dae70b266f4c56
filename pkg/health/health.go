// Package health implements Kubernetes-style liveness and readiness probes.
//
// Every registered probe runs on its own ticker goroutine. Probes flip state
// only after consecutive results cross a threshold, so a single slow Redis
// round trip does not bounce the pod out of the load balancer.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one component. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// ProbeOption tunes a single registered probe.
type ProbeOption func(*probe)

// WithFailureThreshold sets how many consecutive failures mark the probe
// unhealthy. Default 3.
func WithFailureThreshold(n int) ProbeOption {
	return func(p *probe) { p.failureThreshold = n }
}

// WithSuccessThreshold sets how many consecutive successes mark the probe
// healthy again. Default 1.
func WithSuccessThreshold(n int) ProbeOption {
	return func(p *probe) { p.successThreshold = n }
}

// probe is one registered check plus its runtime state.
//
// run() executes on a single ticker goroutine, so the consecutive counters
// need no locking. healthy and lastErr are also read by HTTP handlers and
// use atomics.
type probe struct {
	name             string
	timeout          time.Duration
	check            CheckFunc
	failureThreshold int
	successThreshold int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]

	consecutiveFails int
	consecutiveOK    int
}

func (p *probe) isHealthy() bool {
	return p.healthy.Load()
}

func (p *probe) lastError() error {
	if e := p.lastErr.Load(); e != nil {
		return *e
	}
	return nil
}

func (p *probe) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.check(checkCtx)
	p.lastErr.Store(&err)

	if err != nil {
		p.consecutiveOK = 0
		p.consecutiveFails++
		if p.consecutiveFails >= p.failureThreshold {
			p.healthy.Store(false)
		}
		return
	}
	p.consecutiveFails = 0
	p.consecutiveOK++
	if p.consecutiveOK >= p.successThreshold {
		p.healthy.Store(true)
	}
}

// Health aggregates liveness and readiness probes for a service.
type Health struct {
	ready atomic.Bool

	// mu protects the probe slices and cancel. Registration happens before
	// Start; handlers snapshot the slices under RLock.
	mu        sync.RWMutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New creates a Health in the not-ready state. Call SetReady(true) once the
// service finishes initialization.
func New() *Health {
	return &Health{}
}

func newProbe(name string, timeout time.Duration, check CheckFunc, opts []ProbeOption) *probe {
	p := &probe{
		name:             name,
		timeout:          timeout,
		check:            check,
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	// Assume healthy until the first results say otherwise.
	p.healthy.Store(true)
	return p
}

// AddLivenessCheck registers a probe on /livez. Liveness answers "is this
// process functioning": goroutine leaks, GC stalls.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc, opts ...ProbeOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, newProbe(name, timeout, check, opts))
}

// AddReadinessCheck registers a probe on /readyz. Readiness answers "may this
// instance take traffic": database and cache connectivity.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc, opts ...ProbeOption) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, newProbe(name, timeout, check, opts))
}

// Start launches one goroutine per registered probe, each ticking at
// interval. Register all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := make([]*probe, 0, len(h.liveness)+len(h.readiness))
	probes = append(probes, h.liveness...)
	probes = append(probes, h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.run(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.run(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels all probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate. Set false at the start of
// graceful shutdown so the load balancer drains this instance.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the instance may take traffic: the manual gate is
// open and every readiness probe is passing.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}

	h.mu.RLock()
	probes := h.readiness
	h.mu.RUnlock()

	for _, p := range probes {
		if !p.isHealthy() {
			return false
		}
	}
	return true
}

// Register mounts the probe endpoints on mux at /livez and /readyz.
func (h *Health) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /livez", h.LiveEndpoint)
	mux.HandleFunc("GET /readyz", h.ReadyEndpoint)
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LiveEndpoint serves /livez: 200 when all liveness probes pass, 503 with
// per-check failure messages otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	probes := make([]*probe, len(h.liveness))
	copy(probes, h.liveness)
	h.mu.RUnlock()

	writeStatus(w, failures(probes))
}

// ReadyEndpoint serves /readyz: 200 when the manual gate is open and all
// readiness probes pass, 503 with details otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	ready := h.ready.Load()

	h.mu.RLock()
	probes := make([]*probe, len(h.readiness))
	copy(probes, h.readiness)
	h.mu.RUnlock()

	failed := failures(probes)
	if !ready {
		failed["_readiness"] = "service is not ready"
	}
	writeStatus(w, failed)
}

func failures(probes []*probe) map[string]string {
	failed := make(map[string]string)
	for _, p := range probes {
		if p.isHealthy() {
			continue
		}
		if err := p.lastError(); err != nil {
			failed[p.name] = err.Error()
		} else {
			failed[p.name] = "check is unhealthy"
		}
	}
	return failed
}

func writeStatus(w http.ResponseWriter, failed map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failed) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failed
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

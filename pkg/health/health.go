// Package health watches for clusters of network failures and, when an
// external connectivity probe confirms the process is wedged rather
// than the network being briefly flaky, restarts the process in place.
package health

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"syscall"
	"time"
)

// Prober checks outward connectivity against an endpoint the process
// does not otherwise talk to.
type Prober interface {
	Probe(ctx context.Context) error
}

// Restarter replaces the running process. The default re-execs the
// current binary; tests substitute a recorder.
type Restarter interface {
	Restart() error
}

// Config tunes the failure window.
type Config struct {
	// Threshold is how many failures within Window trigger a probe.
	Threshold int
	// Window is the sliding interval failures are counted over.
	Window time.Duration
	// ProbeURL is the connectivity check target.
	ProbeURL string
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Window <= 0 {
		c.Window = 2 * time.Minute
	}
	if c.ProbeURL == "" {
		c.ProbeURL = "https://www.gstatic.com/generate_204"
	}
	return c
}

// Monitor tracks network failures reported by the rest of the process.
type Monitor struct {
	mu       sync.Mutex
	failures []time.Time

	cfg       Config
	prober    Prober
	restarter Restarter
	now       func() time.Time
}

// NewMonitor creates a monitor. Nil prober or restarter select the
// HTTP probe and the exec-based restart.
func NewMonitor(cfg Config, prober Prober, restarter Restarter) *Monitor {
	cfg = cfg.withDefaults()
	if prober == nil {
		prober = &httpProber{url: cfg.ProbeURL}
	}
	if restarter == nil {
		restarter = execRestarter{}
	}
	return &Monitor{
		cfg:       cfg,
		prober:    prober,
		restarter: restarter,
		now:       time.Now,
	}
}

// ReportFailure records one network failure. When the window fills up,
// the connectivity probe runs; if it fails too, the process restarts.
func (m *Monitor) ReportFailure(ctx context.Context, cause error) {
	m.mu.Lock()
	cutoff := m.now().Add(-m.cfg.Window)
	kept := m.failures[:0]
	for _, t := range m.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.failures = append(kept, m.now())
	count := len(m.failures)
	m.mu.Unlock()

	log.Printf("health: network failure %d/%d in window: %v", count, m.cfg.Threshold, cause)
	if count < m.cfg.Threshold {
		return
	}

	if err := m.prober.Probe(ctx); err == nil {
		log.Printf("health: connectivity probe passed, resetting window")
		m.Reset()
		return
	} else {
		log.Printf("health: connectivity probe failed: %v", err)
	}

	log.Printf("health: restarting process")
	if err := m.restarter.Restart(); err != nil {
		log.Printf("health: restart failed: %v", err)
	}
}

// Reset clears the failure window, typically after a successful call.
func (m *Monitor) Reset() {
	m.mu.Lock()
	m.failures = m.failures[:0]
	m.mu.Unlock()
}

type httpProber struct {
	url string
}

func (p *httpProber) Probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return fmt.Errorf("build probe request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.url, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return fmt.Errorf("probe %s: status %d", p.url, resp.StatusCode)
	}
	return nil
}

// execRestarter replaces the process image with a fresh copy of itself,
// keeping the same arguments and environment.
type execRestarter struct{}

func (execRestarter) Restart() error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	return syscall.Exec(self, os.Args, os.Environ())
}

package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeProber struct {
	err    error
	called int
}

func (f *fakeProber) Probe(ctx context.Context) error {
	f.called++
	return f.err
}

type fakeRestarter struct {
	called int
}

func (f *fakeRestarter) Restart() error {
	f.called++
	return nil
}

func newTestMonitor(probeErr error) (*Monitor, *fakeProber, *fakeRestarter) {
	prober := &fakeProber{err: probeErr}
	restarter := &fakeRestarter{}
	m := NewMonitor(Config{Threshold: 3, Window: time.Minute}, prober, restarter)
	return m, prober, restarter
}

func TestBelowThresholdNoProbe(t *testing.T) {
	m, prober, restarter := newTestMonitor(nil)
	ctx := context.Background()
	m.ReportFailure(ctx, errors.New("timeout"))
	m.ReportFailure(ctx, errors.New("timeout"))
	if prober.called != 0 {
		t.Errorf("probe called %d times, want 0", prober.called)
	}
	if restarter.called != 0 {
		t.Errorf("restart called %d times, want 0", restarter.called)
	}
}

func TestProbePassResetsWindow(t *testing.T) {
	m, prober, restarter := newTestMonitor(nil)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m.ReportFailure(ctx, errors.New("timeout"))
	}
	if prober.called != 1 {
		t.Errorf("probe called %d times, want 1", prober.called)
	}
	if restarter.called != 0 {
		t.Errorf("restart called %d times, want 0", restarter.called)
	}
	// The window was reset, so the next failure starts from one.
	m.ReportFailure(ctx, errors.New("timeout"))
	if prober.called != 1 {
		t.Errorf("probe called %d times after reset, want 1", prober.called)
	}
}

func TestProbeFailTriggersRestart(t *testing.T) {
	m, _, restarter := newTestMonitor(errors.New("no route to host"))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m.ReportFailure(ctx, errors.New("timeout"))
	}
	if restarter.called != 1 {
		t.Errorf("restart called %d times, want 1", restarter.called)
	}
}

func TestOldFailuresExpire(t *testing.T) {
	m, prober, _ := newTestMonitor(nil)
	base := time.Now()
	m.now = func() time.Time { return base }
	ctx := context.Background()

	m.ReportFailure(ctx, errors.New("timeout"))
	m.ReportFailure(ctx, errors.New("timeout"))

	// Two minutes later the earlier failures have aged out.
	m.now = func() time.Time { return base.Add(2 * time.Minute) }
	m.ReportFailure(ctx, errors.New("timeout"))
	if prober.called != 0 {
		t.Errorf("probe called %d times, want 0", prober.called)
	}
}

func TestResetClearsWindow(t *testing.T) {
	m, prober, _ := newTestMonitor(nil)
	ctx := context.Background()
	m.ReportFailure(ctx, errors.New("timeout"))
	m.ReportFailure(ctx, errors.New("timeout"))
	m.Reset()
	m.ReportFailure(ctx, errors.New("timeout"))
	if prober.called != 0 {
		t.Errorf("probe called %d times, want 0", prober.called)
	}
}

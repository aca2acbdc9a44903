package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Refresher is satisfied by RefreshService.
type Refresher interface {
	Refresh(ctx context.Context, reason string) (int, error)
}

// RefreshScheduler refreshes the snapshot once at start and then on every
// tick of Interval.
type RefreshScheduler struct {
	refresher Refresher
	interval  time.Duration

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRefreshScheduler(r Refresher, interval time.Duration) *RefreshScheduler {
	return &RefreshScheduler{refresher: r, interval: interval}
}

// Start begins the refresh loop. Returns an error if already running.
func (p *RefreshScheduler) Start(ctx context.Context) error {
	if p.interval <= 0 {
		return errors.Newf("refresh interval must be positive, got %v", p.interval)
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("refresh scheduler is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Refresh scheduler started", "interval", p.interval)
	return nil
}

// Stop gracefully stops the scheduler and waits for an in-flight refresh.
func (p *RefreshScheduler) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Refresh scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresh scheduler stop timed out")
		return ctx.Err()
	}
	return nil
}

func (p *RefreshScheduler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *RefreshScheduler) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.refresh(ctx, "startup")

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.refresh(ctx, "schedule")
		}
	}
}

func (p *RefreshScheduler) refresh(ctx context.Context, reason string) {
	if _, err := p.refresher.Refresh(ctx, reason); err != nil {
		slog.ErrorContext(ctx, "Scheduled refresh failed", "reason", reason, "error", err)
	}
}

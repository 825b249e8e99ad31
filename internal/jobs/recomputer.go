package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/forgo/accord/internal/service"
)

// ErrRunInProgress is returned by RunOnce while another run is active
var ErrRunInProgress = errors.New("a run is already in progress")

// MatchRecomputer is the batch operation the Recomputer schedules
type MatchRecomputer interface {
	RecomputeAllMatches(ctx context.Context) (*service.RecomputeReport, error)
}

// Recomputer periodically rescores every eligible pair
type Recomputer struct {
	matches  MatchRecomputer
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
	runMu    sync.Mutex
}

// RecomputerConfig holds configuration for the recompute job
type RecomputerConfig struct {
	Matches MatchRecomputer
	// Interval between runs; zero disables the schedule (RunOnce still works)
	Interval time.Duration
	Timeout  time.Duration // Optional, defaults to 30m
	Logger   *zap.Logger   // Optional
}

// NewRecomputer creates a new recompute job
func NewRecomputer(cfg RecomputerConfig) *Recomputer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	return &Recomputer{
		matches:  cfg.Matches,
		interval: cfg.Interval,
		timeout:  timeout,
		logger:   logger.Named("recomputer"),
	}
}

// Start begins the recompute schedule. It does nothing when the interval is zero.
func (r *Recomputer) Start() {
	if r.interval <= 0 {
		r.logger.Info("match recompute schedule disabled")
		return
	}

	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true
	stopCh := make(chan struct{})
	r.stopCh = stopCh
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(stopCh)
	r.logger.Info("match recomputer started", zap.Duration("interval", r.interval))
}

// Stop gracefully stops the schedule, waiting for an in-flight run
func (r *Recomputer) Stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	close(r.stopCh)
	r.mu.Unlock()

	r.wg.Wait()
	r.logger.Info("match recomputer stopped")
}

func (r *Recomputer) run(stopCh <-chan struct{}) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.scheduledRun(stopCh)
		case <-stopCh:
			return
		}
	}
}

func (r *Recomputer) scheduledRun(stopCh <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := r.RunOnce(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			r.logger.Debug("skipping scheduled recompute, previous run still active")
			return
		}
		r.logger.Error("scheduled match recompute failed", zap.Error(err))
	}
}

// RunOnce recomputes all matches once (for the CLI, the admin endpoint or tests)
func (r *Recomputer) RunOnce(ctx context.Context) (*service.RecomputeReport, error) {
	if !r.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.runMu.Unlock()

	return r.matches.RecomputeAllMatches(ctx)
}

// IsRunning returns whether the schedule is active
func (r *Recomputer) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StaleHandshakeExpirer moves long-pending handshakes to expired
type StaleHandshakeExpirer interface {
	ExpireStale(ctx context.Context, ttl time.Duration) (int, error)
}

// HandshakeExpirer periodically expires handshakes that stayed pending
// longer than the TTL
type HandshakeExpirer struct {
	handshakes StaleHandshakeExpirer
	ttl        time.Duration
	interval   time.Duration
	logger     *zap.Logger
	stopCh     chan struct{}
	wg         sync.WaitGroup
	running    bool
	mu         sync.Mutex
}

// HandshakeExpirerConfig holds configuration for the expiry job
type HandshakeExpirerConfig struct {
	Handshakes StaleHandshakeExpirer
	TTL        time.Duration // Zero disables expiry
	Interval   time.Duration // Optional, defaults to 1h
	Logger     *zap.Logger   // Optional
}

// NewHandshakeExpirer creates a new handshake expiry job
func NewHandshakeExpirer(cfg HandshakeExpirerConfig) *HandshakeExpirer {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &HandshakeExpirer{
		handshakes: cfg.Handshakes,
		ttl:        cfg.TTL,
		interval:   interval,
		logger:     logger.Named("handshake_expirer"),
	}
}

// Start begins the expiry job. It does nothing when the TTL is zero.
func (e *HandshakeExpirer) Start() {
	if e.ttl <= 0 {
		e.logger.Info("handshake expiry disabled")
		return
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	stopCh := make(chan struct{})
	e.stopCh = stopCh
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run(stopCh)
	e.logger.Info("handshake expirer started", zap.Duration("ttl", e.ttl), zap.Duration("interval", e.interval))
}

// Stop gracefully stops the expiry job
func (e *HandshakeExpirer) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()
	e.logger.Info("handshake expirer stopped")
}

func (e *HandshakeExpirer) run(stopCh <-chan struct{}) {
	defer e.wg.Done()

	// Catch up on anything that went stale while the process was down
	e.expire()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.expire()
		case <-stopCh:
			return
		}
	}
}

func (e *HandshakeExpirer) expire() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := e.RunOnce(ctx); err != nil {
		e.logger.Error("handshake expiry failed", zap.Error(err))
	}
}

// RunOnce expires stale handshakes once and returns how many changed
func (e *HandshakeExpirer) RunOnce(ctx context.Context) (int, error) {
	if e.ttl <= 0 {
		return 0, nil
	}
	return e.handshakes.ExpireStale(ctx, e.ttl)
}

// IsRunning returns whether the job is running
func (e *HandshakeExpirer) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

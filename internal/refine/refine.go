// Package refine finds the most accurate position fix obtainable within a
// fixed time budget.
package refine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/logging"
	"github.com/rcliao/jason-client/internal/model"
	"github.com/rcliao/jason-client/internal/position"
)

const (
	DefaultBudget         = 4 * time.Second
	DefaultInitialTimeout = 12 * time.Second
	DefaultMaxAge         = 5 * time.Second
	DefaultInterval       = time.Second
)

// Loop drives a sampler for a bounded window and keeps the best fix.
// Zero durations fall back to the defaults above.
type Loop struct {
	Sampler position.Sampler
	Clock   Clock
	Logger  *zap.Logger

	Budget         time.Duration // watch window after the initial read
	InitialTimeout time.Duration // upper wait for the initial read
	MaxAge         time.Duration // oldest acceptable cached initial fix
	Interval       time.Duration // requested spacing of watched fixes
}

// New returns a loop over s with default timings and the wall clock.
func New(s position.Sampler, logger *zap.Logger) *Loop {
	return &Loop{
		Sampler:        s,
		Clock:          RealClock(),
		Logger:         logger,
		Budget:         DefaultBudget,
		InitialTimeout: DefaultInitialTimeout,
		MaxAge:         DefaultMaxAge,
		Interval:       DefaultInterval,
	}
}

// Best returns the most accurate reading seen, or false if none was obtained.
// Permission denial, read failures and sampler panics all yield false; the
// watch subscription, if any, is released before Best returns.
func (l *Loop) Best(ctx context.Context) (best model.Reading, found bool) {
	if l == nil || l.Sampler == nil {
		return model.Reading{}, false
	}
	log := logging.OrNop(l.Logger)
	clock := l.Clock
	if clock == nil {
		clock = RealClock()
	}

	defer func() {
		if p := recover(); p != nil {
			log.Debug("position sampler panicked", zap.Any("panic", p))
			best, found = model.Reading{}, false
		}
	}()

	granted, err := l.Sampler.RequestPermission(ctx)
	if err != nil || !granted {
		log.Debug("location permission not granted", zap.Bool("granted", granted), zap.Error(err))
		return model.Reading{}, false
	}

	t := &tracker{}
	if r, ok := l.initial(ctx, clock, log); ok {
		t.offer(r)
	}

	watcher, ok := l.Sampler.(position.Watcher)
	if !ok {
		return t.finish()
	}

	sub, err := watcher.WatchReadings(ctx, position.Options{
		Accuracy: position.AccuracyHighest,
		Interval: orDefault(l.Interval, DefaultInterval),
	}, t.offer)
	if err != nil {
		log.Debug("position watch failed", zap.Error(err))
		return t.finish()
	}
	defer sub.Release()

	select {
	case <-clock.After(orDefault(l.Budget, DefaultBudget)):
	case <-ctx.Done():
		log.Debug("position refinement cancelled", zap.Error(ctx.Err()))
	}
	return t.finish()
}

// initial takes one high-accuracy fix, rejecting fixes older than MaxAge.
func (l *Loop) initial(ctx context.Context, clock Clock, log *zap.Logger) (model.Reading, bool) {
	timeout := orDefault(l.InitialTimeout, DefaultInitialTimeout)
	maxAge := orDefault(l.MaxAge, DefaultMaxAge)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	r, err := l.Sampler.CurrentReading(ctx, position.Options{
		Accuracy: position.AccuracyHighest,
		MaxAge:   maxAge,
		Timeout:  timeout,
	})
	if err != nil {
		log.Debug("initial position read failed", zap.Error(err))
		return model.Reading{}, false
	}
	if !r.Timestamp.IsZero() && clock.Now().Sub(r.Timestamp) > maxAge {
		log.Debug("initial position fix too old", zap.Time("fix", r.Timestamp), zap.Duration("max_age", maxAge))
		return model.Reading{}, false
	}
	return r, true
}

// tracker holds the best fix. Samplers may deliver from their own
// goroutine, and offers after finish are dropped.
type tracker struct {
	mu     sync.Mutex
	best   model.Reading
	found  bool
	closed bool
}

func (t *tracker) offer(r model.Reading) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if !t.found || r.MoreAccurateThan(t.best) {
		t.best, t.found = r, true
	}
}

func (t *tracker) finish() (model.Reading, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return t.best, t.found
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}

package position

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	gpsd "github.com/stratoberry/go-gpsd"
	"go.uber.org/zap"

	"github.com/rcliao/jason-client/internal/logging"
	"github.com/rcliao/jason-client/internal/model"
)

// DefaultGPSDAddr is gpsd's standard listen address.
const DefaultGPSDAddr = "127.0.0.1:2947"

// GPSD reads fixes from a gpsd daemon. Permission is granted when the daemon
// is reachable. gpsd has no accuracy tiers, so Options.Accuracy is ignored.
type GPSD struct {
	addr   string
	logger *zap.Logger
	now    func() time.Time
}

// NewGPSD creates a sampler for the daemon at addr (DefaultGPSDAddr when empty).
func NewGPSD(addr string, logger *zap.Logger) *GPSD {
	if addr == "" {
		addr = DefaultGPSDAddr
	}
	return &GPSD{
		addr:   addr,
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

func (g *GPSD) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s, err := gpsd.Dial(g.addr)
	if err != nil {
		return false, fmt.Errorf("gpsd unreachable at %s: %w", g.addr, err)
	}
	s.Close()
	return true, nil
}

func (g *GPSD) CurrentReading(ctx context.Context, opts Options) (model.Reading, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	fixes := make(chan model.Reading, 1)
	sub, err := g.watch(ctx, func(r model.Reading) {
		if opts.MaxAge > 0 && g.now().Sub(r.Timestamp) > opts.MaxAge {
			return
		}
		select {
		case fixes <- r:
		default:
		}
	})
	if err != nil {
		return model.Reading{}, err
	}
	defer sub.Release()

	select {
	case r := <-fixes:
		return r, nil
	case <-sub.ended:
		select {
		case r := <-fixes:
			return r, nil
		default:
		}
		if err := ctx.Err(); err != nil {
			return model.Reading{}, fmt.Errorf("gpsd read: %w", err)
		}
		return model.Reading{}, fmt.Errorf("gpsd closed before a fix: %w", ErrUnavailable)
	case <-ctx.Done():
		return model.Reading{}, fmt.Errorf("gpsd read: %w", ctx.Err())
	}
}

func (g *GPSD) WatchReadings(ctx context.Context, opts Options, onReading func(model.Reading)) (Subscription, error) {
	var last time.Time
	return g.watch(ctx, func(r model.Reading) {
		if opts.Interval > 0 && !last.IsZero() && r.Timestamp.Sub(last) < opts.Interval {
			return
		}
		last = r.Timestamp
		onReading(r)
	})
}

// watch opens a session and delivers every usable TPV fix to fn on the
// session's reader goroutine.
func (g *GPSD) watch(ctx context.Context, fn func(model.Reading)) (*gpsdSub, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, err := gpsd.Dial(g.addr)
	if err != nil {
		return nil, fmt.Errorf("gpsd dial %s: %w", g.addr, err)
	}

	s.AddFilter("TPV", func(report interface{}) {
		if r, ok := g.reading(report); ok {
			fn(r)
		}
	})

	sub := &gpsdSub{session: s, ended: make(chan struct{})}
	done := s.Watch()
	go func() {
		<-done
		close(sub.ended)
	}()
	sub.stop = context.AfterFunc(ctx, sub.close)
	return sub, nil
}

// reading converts a TPV report with at least a 2D fix.
func (g *GPSD) reading(report interface{}) (model.Reading, bool) {
	tpv, ok := report.(*gpsd.TPVReport)
	if !ok || tpv == nil || tpv.Mode < gpsd.Mode2D {
		return model.Reading{}, false
	}

	r := model.Reading{Latitude: tpv.Lat, Longitude: tpv.Lon, Timestamp: tpv.Time}
	if r.Timestamp.IsZero() {
		r.Timestamp = g.now()
	}
	if tpv.Epx > 0 || tpv.Epy > 0 {
		r.AccuracyMeters = model.Meters(math.Max(tpv.Epx, tpv.Epy))
	}
	return r, true
}

type gpsdSub struct {
	session *gpsd.Session
	ended   chan struct{} // closed when the reader goroutine exits
	stop    func() bool
	once    sync.Once
}

func (s *gpsdSub) close() {
	s.once.Do(func() { s.session.Close() })
}

// Release closes the session and waits for its reader goroutine to exit.
func (s *gpsdSub) Release() {
	if s.stop != nil {
		s.stop()
	}
	s.close()
	<-s.ended
}

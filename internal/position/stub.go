package position

import (
	"context"
	"sync"
	"time"

	"github.com/rcliao/jason-client/internal/model"
)

// Unavailable is the sampler used where no positioning capability exists.
type Unavailable struct{}

func (Unavailable) RequestPermission(ctx context.Context) (bool, error) {
	return false, ErrUnavailable
}

func (Unavailable) CurrentReading(ctx context.Context, opts Options) (model.Reading, error) {
	return model.Reading{}, ErrUnavailable
}

// Failing grants permission but fails every read and watch.
type Failing struct {
	Err error // defaults to ErrUnavailable
}

func (f Failing) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrUnavailable
}

func (f Failing) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (f Failing) CurrentReading(ctx context.Context, opts Options) (model.Reading, error) {
	return model.Reading{}, f.err()
}

func (f Failing) WatchReadings(ctx context.Context, opts Options, onReading func(model.Reading)) (Subscription, error) {
	return nil, f.err()
}

// Fixed serves canned readings. CurrentReading returns the first one; a watch
// replays the rest in order, one per opts.Interval.
// Readings with a zero Timestamp are stamped at delivery time.
type Fixed struct {
	readings []model.Reading
	now      func() time.Time
}

// NewFixed creates a Fixed sampler. It needs at least one reading.
func NewFixed(readings ...model.Reading) *Fixed {
	return &Fixed{readings: readings, now: time.Now}
}

func (f *Fixed) stamp(r model.Reading) model.Reading {
	if r.Timestamp.IsZero() {
		r.Timestamp = f.now()
	}
	return r
}

func (f *Fixed) RequestPermission(ctx context.Context) (bool, error) {
	return true, nil
}

func (f *Fixed) CurrentReading(ctx context.Context, opts Options) (model.Reading, error) {
	if len(f.readings) == 0 {
		return model.Reading{}, ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return model.Reading{}, err
	}
	return f.stamp(f.readings[0]), nil
}

func (f *Fixed) WatchReadings(ctx context.Context, opts Options, onReading func(model.Reading)) (Subscription, error) {
	sub := &replay{stop: make(chan struct{}), done: make(chan struct{})}
	var rest []model.Reading
	if len(f.readings) > 1 {
		rest = f.readings[1:]
	}

	go func() {
		defer close(sub.done)
		for _, r := range rest {
			if opts.Interval > 0 {
				t := time.NewTimer(opts.Interval)
				select {
				case <-t.C:
				case <-sub.stop:
					t.Stop()
					return
				case <-ctx.Done():
					t.Stop()
					return
				}
			}
			select {
			case <-sub.stop:
				return
			case <-ctx.Done():
				return
			default:
			}
			onReading(f.stamp(r))
		}
	}()

	return sub, nil
}

type replay struct {
	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// Release stops the replay and waits for its goroutine to exit.
func (r *replay) Release() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

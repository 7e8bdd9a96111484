package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNetwork marks a backend that could not be reached. Backoff retries
	// operations failing with it.
	ErrNetwork = errors.New("cache backend unreachable")

	// ErrCorrupt marks a stored value that does not decode as a layout.
	ErrCorrupt = errors.New("corrupt cache entry")
)

// Backoff retries backend operations that fail with ErrNetwork, doubling the
// delay after every failed attempt.
type Backoff struct {
	Attempts int
	Delay    time.Duration
}

// DefaultBackoff makes three attempts, 100ms and then 200ms apart.
var DefaultBackoff = Backoff{Attempts: 3, Delay: 100 * time.Millisecond}

// Do calls fn until it returns nil or an error other than ErrNetwork, at most
// b.Attempts times. A cancelled ctx ends the wait between attempts.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	attempts := max(b.Attempts, 1)
	delay := b.Delay

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil || !errors.Is(err, ErrNetwork) {
			return err
		}
		if i == attempts-1 {
			break
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

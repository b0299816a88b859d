package platform

import (
	"context"
	"time"
)

// SystemClock implements Clock with the real time package.
type SystemClock struct{}

// NewSystemClock returns a Clock backed by time.Now and time.After.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current wall-clock time.
func (c *SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep blocks for d or until ctx is done.
func (c *SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Compile-time interface verification.
var _ Clock = (*SystemClock)(nil)

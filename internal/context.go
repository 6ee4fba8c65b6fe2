package internal

import (
	"context"
	"time"
)

// WithTimeout wraps context.WithTimeout with a 5 second floor so a zero
// config value never produces an already-expired context.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}

package repository

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// simulateLatency blocks for d on clk, emulating the round trip of a remote
// store. It returns early with the context error if ctx is done first.
func simulateLatency(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := clk.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

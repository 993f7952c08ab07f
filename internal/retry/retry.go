// Package retry implements the fixed escalating-delay schedule used
// around flaky collaborator calls (mail fetch, marker store). The
// schedule is an ordered list of delays, so the attempt count is capped
// by construction.
package retry

import (
	"context"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"
)

// DefaultDelays matches the historical 1/5/10/15/20 minute schedule.
var DefaultDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	10 * time.Minute,
	15 * time.Minute,
	20 * time.Minute,
}

// Do runs fn up to len(delays)+1 times, sleeping the next scheduled
// delay between attempts. The last error wins. Context cancellation
// interrupts both the sleep and the schedule.
func Do(ctx context.Context, delays []time.Duration, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt >= len(delays) {
			logger.Error.Printf("The number of attempts is over: %v", err)
			return err
		}

		logger.Debug.Printf("Attempt %d failed: %v. Sleep for %s.", attempt+1, err, delays[attempt])
		timer := time.NewTimer(delays[attempt])
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

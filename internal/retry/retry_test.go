package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	delays := []time.Duration{time.Millisecond, time.Millisecond}

	t.Run("first attempt wins", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), delays, func() error {
			calls++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("recovers within the schedule", func(t *testing.T) {
		calls := 0
		err := Do(context.Background(), delays, func() error {
			calls++
			if calls < 3 {
				return errors.New("flaky")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("attempts are capped by the schedule", func(t *testing.T) {
		wantErr := errors.New("still down")
		calls := 0
		err := Do(context.Background(), delays, func() error {
			calls++
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
		assert.Equal(t, len(delays)+1, calls)
	})

	t.Run("cancellation interrupts the schedule", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := Do(ctx, []time.Duration{time.Hour}, func() error {
			calls++
			return errors.New("down")
		})
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

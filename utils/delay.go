package utils

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// RandomDuration returns a random duration in [min, max).
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

// Pause sleeps for a random duration between min and max, or until ctx is
// done. With progress on, a spinner shows msg on stderr while waiting.
//
// Fixed delays between page loads are an easy pattern to spot, so the
// wait is randomised like a person clicking through results.
func Pause(ctx context.Context, min, max time.Duration, progress bool, msg string) error {
	d := RandomDuration(min, max)
	if d <= 0 {
		return ctx.Err()
	}

	if progress {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " " + msg
		s.Start()
		defer s.Stop()
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package ratelimit

import (
	"time"

	"github.com/submitd/submitd/internal/domain/submission"
)

// Window is the per-user admission state: the instants at which this user's
// submissions were admitted, ordered oldest first.
type Window struct {
	User       submission.UserId
	Timestamps []time.Time
}

// Pruned returns a copy of the Window with entries outside the trailing
// window removed. The retention predicate is strictly `t > now - size`: an
// entry sitting exactly on the boundary is expired.
func (w Window) Pruned(now time.Time, size time.Duration) Window {
	cutoff := now.Add(-size)
	kept := make([]time.Time, 0, len(w.Timestamps))
	for _, t := range w.Timestamps {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return Window{User: w.User, Timestamps: kept}
}

// Appended returns a copy of the Window with the given instant added at the
// end.
func (w Window) Appended(t time.Time) Window {
	timestamps := make([]time.Time, 0, len(w.Timestamps)+1)
	timestamps = append(timestamps, w.Timestamps...)
	timestamps = append(timestamps, t)
	return Window{User: w.User, Timestamps: timestamps}
}

func (w Window) Count() uint {
	return uint(len(w.Timestamps))
}

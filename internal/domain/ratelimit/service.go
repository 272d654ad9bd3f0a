package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/submitd/submitd/internal/domain/submission"
)

// Limiter decides whether a user may be admitted at a given instant.
type Limiter interface {
	// Admit applies the sliding-window check for the given user at `now`.
	// A nil return means admitted, in which case `now` has been appended to
	// the user's persisted window. On QuotaExceeded the persisted window is
	// left untouched, so rejected attempts never count against the quota.
	Admit(ctx context.Context, user submission.UserId, now time.Time) error
}

// WindowStore persists per-user Windows with conditional-write semantics.
type WindowStore interface {
	// Get returns the stored Window for the user; an empty Window if the
	// user has never been seen.
	Get(ctx context.Context, user submission.UserId) (Window, error)

	// ReplaceIf persists `next` for the user if and only if the currently
	// stored Window still equals `prev`. Returns Conflict when a concurrent
	// writer got there first.
	ReplaceIf(ctx context.Context, user submission.UserId, prev Window, next Window) error
}

type Settings struct {
	// Quota is the number of admissions allowed within the trailing Window
	Quota uint
	// Window is the trailing window size
	Window time.Duration
	// ConflictRetryTimes bounds how often a conflicted check is re-run from
	// scratch before giving up
	ConflictRetryTimes uint
}

// NewLimiter returns the sliding-window Limiter implementation. Two
// concurrent checks for the same user cannot both slip under the quota: the
// store's conditional write makes one of them lose, and the loser re-runs the
// full check against fresh state.
func NewLimiter(store WindowStore, settings Settings) Limiter {
	return &slidingWindow{store: store, settings: settings}
}

type slidingWindow struct {
	store    WindowStore
	settings Settings
}

func (l *slidingWindow) Admit(ctx context.Context, user submission.UserId, now time.Time) error {
	for attempt := uint(0); ; attempt++ {
		stored, err := l.store.Get(ctx, user)
		if err != nil {
			return err
		}
		// prune lazily on each check; stale entries are only ever dropped here
		current := stored.Pruned(now, l.settings.Window)
		if current.Count() >= l.settings.Quota {
			return QuotaExceeded{User: user, Quota: l.settings.Quota, Window: l.settings.Window}
		}
		err = l.store.ReplaceIf(ctx, user, stored, current.Appended(now))
		if err == nil {
			return nil
		}
		if _, conflicted := err.(Conflict); conflicted {
			if attempt < l.settings.ConflictRetryTimes {
				continue
			}
			return ConflictRetriesExceeded{User: user, Attempts: attempt + 1}
		}
		return err
	}
}

// <-- Domain Errors

// QuotaExceeded is returned when a user is at quota within the trailing
// window. It is an admission rejection, not a system error.
type QuotaExceeded struct {
	User   submission.UserId
	Quota  uint
	Window time.Duration
}

func (e QuotaExceeded) Error() string {
	return fmt.Sprintf("Rate limit exceeded (%d submissions per %v)", e.Quota, e.Window)
}

// Conflict is returned by a WindowStore when a conditional write lost to a
// concurrent writer.
type Conflict struct {
	User submission.UserId
}

func (e Conflict) Error() string {
	return fmt.Sprintf("Concurrent update of rate window for user [%v]", e.User)
}

// ConflictRetriesExceeded is returned when the retry budget for conflicted
// checks is used up. This is a transient infrastructure failure, never a
// quota rejection.
type ConflictRetriesExceeded struct {
	User     submission.UserId
	Attempts uint
}

func (e ConflictRetriesExceeded) Error() string {
	return fmt.Sprintf("Gave up admitting user [%v] after [%d] conflicted attempts", e.User, e.Attempts)
}

//     Errors -->

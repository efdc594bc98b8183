package challenge

import (
	"errors"
	"slices"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/streak"
)

var (
	ErrAlreadyCheckedIn = errors.New("already checked in today")
	ErrNotActive        = errors.New("challenge is not active")
)

// State is the mutable part of a user's participation in a challenge.
type State struct {
	CheckIns      []string
	CompletedDays int
	CurrentStreak int
	Status        string
	CompletedAt   *time.Time
}

// FromUserChallenge extracts the check-in state from a stored record.
func FromUserChallenge(uc model.UserChallenge) State {
	return State{
		CheckIns:      slices.Clone(uc.CheckIns),
		CompletedDays: uc.CompletedDays,
		CurrentStreak: uc.CurrentStreak,
		Status:        uc.Status,
		CompletedAt:   uc.CompletedAt,
	}
}

// CheckIn records a check-in for the UTC calendar day of now. It returns the next
// state and whether this check-in completed the challenge. A challenge can be
// checked into at most once per day and only while active; completion is a
// one-way transition that happens the moment completedDays reaches duration.
func CheckIn(s State, now time.Time, duration int) (State, bool, error) {
	if s.Status != model.ChallengeActive {
		return s, false, ErrNotActive
	}

	now = now.UTC()
	today := streak.StartOfDay(now)
	todayKey := today.Format(streak.DayLayout)
	if slices.Contains(s.CheckIns, todayKey) {
		return s, false, ErrAlreadyCheckedIn
	}

	next := State{
		CheckIns:    append(slices.Clone(s.CheckIns), todayKey),
		Status:      s.Status,
		CompletedAt: s.CompletedAt,
	}
	next.CompletedDays = len(next.CheckIns)

	yesterdayKey := today.AddDate(0, 0, -1).Format(streak.DayLayout)
	if slices.Contains(s.CheckIns, yesterdayKey) {
		next.CurrentStreak = s.CurrentStreak + 1
	} else {
		next.CurrentStreak = 1
	}

	if next.CompletedDays >= duration {
		next.Status = model.ChallengeCompleted
		completedAt := now
		next.CompletedAt = &completedAt
		return next, true, nil
	}
	return next, false, nil
}

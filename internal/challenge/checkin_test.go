package challenge

import (
	"errors"
	"testing"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
)

func day(d int) time.Time {
	return time.Date(2026, 4, d, 9, 30, 0, 0, time.UTC)
}

func activeState() State {
	return State{Status: model.ChallengeActive}
}

func TestCheckInFirstDay(t *testing.T) {
	next, completed, err := CheckIn(activeState(), day(1), 7)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if completed {
		t.Error("should not complete on day 1 of 7")
	}
	if len(next.CheckIns) != 1 || next.CheckIns[0] != "2026-04-01" {
		t.Errorf("checkIns = %v, want [2026-04-01]", next.CheckIns)
	}
	if next.CompletedDays != 1 {
		t.Errorf("completedDays = %d, want 1", next.CompletedDays)
	}
	if next.CurrentStreak != 1 {
		t.Errorf("currentStreak = %d, want 1", next.CurrentStreak)
	}
}

func TestCheckInTwiceSameDay(t *testing.T) {
	s, _, err := CheckIn(activeState(), day(1), 7)
	if err != nil {
		t.Fatalf("first check in: %v", err)
	}
	later := day(1).Add(8 * time.Hour)
	again, _, err := CheckIn(s, later, 7)
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("err = %v, want ErrAlreadyCheckedIn", err)
	}
	if len(again.CheckIns) != 1 {
		t.Errorf("checkIns = %v, want one entry", again.CheckIns)
	}
}

func TestCheckInStreakResetsAfterGap(t *testing.T) {
	s := activeState()
	s, _, _ = CheckIn(s, day(1), 10)
	s, _, _ = CheckIn(s, day(2), 10)
	if s.CurrentStreak != 2 {
		t.Fatalf("currentStreak = %d, want 2", s.CurrentStreak)
	}
	s, _, _ = CheckIn(s, day(4), 10)
	if s.CurrentStreak != 1 {
		t.Errorf("currentStreak = %d, want 1 after gap", s.CurrentStreak)
	}
	if s.CompletedDays != 3 {
		t.Errorf("completedDays = %d, want 3", s.CompletedDays)
	}
}

func TestCheckInCompletesAtDuration(t *testing.T) {
	s := activeState()
	var completed bool
	var err error
	for d := 1; d <= 7; d++ {
		s, completed, err = CheckIn(s, day(d), 7)
		if err != nil {
			t.Fatalf("day %d: %v", d, err)
		}
		if d < 7 && completed {
			t.Fatalf("completed early on day %d", d)
		}
	}
	if !completed {
		t.Fatal("expected completion on day 7")
	}
	if s.Status != model.ChallengeCompleted {
		t.Errorf("status = %q, want completed", s.Status)
	}
	if s.CompletedAt == nil {
		t.Error("completedAt should be set")
	}
	if s.CurrentStreak != 7 {
		t.Errorf("currentStreak = %d, want 7", s.CurrentStreak)
	}

	_, _, err = CheckIn(s, day(8), 7)
	if !errors.Is(err, ErrNotActive) {
		t.Errorf("err = %v, want ErrNotActive", err)
	}
}

func TestCheckInDoesNotMutateInput(t *testing.T) {
	s := State{Status: model.ChallengeActive, CheckIns: []string{"2026-04-01"}, CompletedDays: 1, CurrentStreak: 1}
	_, _, err := CheckIn(s, day(2), 7)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if len(s.CheckIns) != 1 {
		t.Errorf("input checkIns mutated: %v", s.CheckIns)
	}
}

func TestCheckInKeysByUTCDay(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	s, _, err := CheckIn(activeState(), time.Date(2026, 4, 1, 21, 0, 0, 0, est), 7)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if s.CheckIns[0] != "2026-04-02" {
		t.Errorf("checkIns = %v, want [2026-04-02]", s.CheckIns)
	}

	_, _, err = CheckIn(s, time.Date(2026, 4, 2, 6, 0, 0, 0, time.UTC), 7)
	if !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Errorf("err = %v, want ErrAlreadyCheckedIn", err)
	}
}

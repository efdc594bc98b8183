package streak

import (
	"sort"
	"time"
)

// DayLayout is the calendar-day key format used for streak and check-in days.
const DayLayout = "2006-01-02"

// Calculate returns the number of consecutive calendar days, ending at the
// most recent completed day, that contain at least one completion. Nil
// entries are sessions that were started but never completed.
//
// The run does not have to include today: a user whose last completion was
// three days ago still reports the length of that last run.
func Calculate(completions []*time.Time) int {
	seen := make(map[string]struct{}, len(completions))
	days := make([]time.Time, 0, len(completions))
	for _, c := range completions {
		if c == nil {
			continue
		}
		d := StartOfDay(*c)
		key := d.Format(DayLayout)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		days = append(days, d)
	}
	if len(days) == 0 {
		return 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	count := 1
	for i := 1; i < len(days); i++ {
		want := days[i-1].AddDate(0, 0, -1)
		if !days[i].Equal(want) {
			break
		}
		count++
	}
	return count
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

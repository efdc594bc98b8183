package insights

import (
	"math"
	"sort"
	"time"

	"github.com/prem-prasad1710/ritualos/internal/model"
	"github.com/prem-prasad1710/ritualos/internal/streak"
)

// DayPoint is one bar in the energy chart.
type DayPoint struct {
	Date          string  `json:"date"`
	AverageEnergy float64 `json:"averageEnergy"`
	Count         int     `json:"count"`
}

type MoodCount struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

type Summary struct {
	Days          []DayPoint  `json:"days"`
	Moods         []MoodCount `json:"moods"`
	AverageEnergy float64     `json:"averageEnergy"`
	TotalEntries  int         `json:"totalEntries"`
	TopMood       string      `json:"topMood"`
}

// Summarize aggregates mood entries from the last days calendar days ending
// today (relative to now). Every day in the window is present in the result,
// oldest first, even when it has no entries. Entries outside the window are
// ignored.
func Summarize(entries []model.MoodEntry, days int, now time.Time) Summary {
	if days < 1 {
		days = 1
	}
	today := streak.StartOfDay(now)
	first := today.AddDate(0, 0, -(days - 1))

	type bucket struct {
		sum   int
		count int
	}
	buckets := make(map[string]*bucket, days)
	out := Summary{Days: make([]DayPoint, 0, days)}
	for i := 0; i < days; i++ {
		key := first.AddDate(0, 0, i).Format(streak.DayLayout)
		buckets[key] = &bucket{}
		out.Days = append(out.Days, DayPoint{Date: key})
	}

	moods := make(map[string]int)
	total := 0
	for _, e := range entries {
		key := streak.StartOfDay(e.CreatedAt.In(now.Location())).Format(streak.DayLayout)
		b, ok := buckets[key]
		if !ok {
			continue
		}
		b.sum += e.Energy
		b.count++
		moods[e.Mood]++
		total += e.Energy
		out.TotalEntries++
	}

	for i := range out.Days {
		b := buckets[out.Days[i].Date]
		out.Days[i].Count = b.count
		if b.count > 0 {
			out.Days[i].AverageEnergy = round2(float64(b.sum) / float64(b.count))
		}
	}
	if out.TotalEntries > 0 {
		out.AverageEnergy = round2(float64(total) / float64(out.TotalEntries))
	}

	out.Moods = make([]MoodCount, 0, len(moods))
	for m, c := range moods {
		out.Moods = append(out.Moods, MoodCount{Mood: m, Count: c})
	}
	sort.Slice(out.Moods, func(i, j int) bool {
		if out.Moods[i].Count != out.Moods[j].Count {
			return out.Moods[i].Count > out.Moods[j].Count
		}
		return out.Moods[i].Mood < out.Moods[j].Mood
	})
	if len(out.Moods) > 0 {
		out.TopMood = out.Moods[0].Mood
	}

	return out
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

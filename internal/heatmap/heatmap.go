// Package heatmap builds the completion-activity calendar grid.
//
// The aggregation is pure: for a fixed record set and a fixed "today"
// the output is identical across runs. It is recomputed on every read
// and never cached.
package heatmap

import (
	"math"
	"time"

	"github.com/randalmurphal/pulseboard/internal/task"
)

// WindowDays is the trailing completion window: the closed interval
// [today-WindowDays, today].
const WindowDays = 365

// Cell pitch in pixels for month-label placement: 12px cell + 4px margin.
const weekPitch = 16

const dateLayout = "2006-01-02"

// Day is one bucket of the completion window.
type Day struct {
	Date  string `json:"date"`  // YYYY-MM-DD
	Count int    `json:"count"` // completed tasks on that date
	Level int    `json:"level"` // intensity 0-4
}

// MonthLabel marks the first week-column of a new calendar month.
type MonthLabel struct {
	Month string `json:"month"` // short month name, e.g. "Jan"
	Left  int    `json:"left"`  // horizontal offset: week index times cell pitch
}

// BusiestDay is the date with the most completions in the window.
type BusiestDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Stats summarizes the record set for the dashboard cards.
type Stats struct {
	Total          int         `json:"total"`
	Completed      int         `json:"completed"`
	CompletionRate int         `json:"completion_rate"` // whole percent, 0 when Total is 0
	CurrentStreak  int         `json:"current_streak"`
	LongestStreak  int         `json:"longest_streak"`
	BusiestDay     *BusiestDay `json:"busiest_day"`
}

// Grid is the ready-to-render heatmap.
type Grid struct {
	StartDate   string       `json:"start_date"`
	EndDate     string       `json:"end_date"`
	Days        []Day        `json:"days"`
	Weeks       [][]*Day     `json:"weeks"` // column-major by week; nil cells are padding
	MonthLabels []MonthLabel `json:"month_labels"`
	Stats       Stats        `json:"stats"`
}

// Build aggregates the records into the activity grid for the trailing
// window ending at today. Dates are bucketed by calendar day in
// today's location.
//
// Only records whose effective status equals "completed"
// case-insensitively AND whose completion date is present contribute
// to a bucket. Completion dates outside the window are ignored, not an
// error: a malformed or ancient record must never blank the dashboard.
func Build(records []task.Task, today time.Time) Grid {
	loc := today.Location()
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	start := end.AddDate(0, 0, -WindowDays)

	// Dense bucket map: every date in the window, no missing keys.
	totalDays := WindowDays + 1
	counts := make(map[string]int, totalDays)
	for i := 0; i < totalDays; i++ {
		counts[start.AddDate(0, 0, i).Format(dateLayout)] = 0
	}

	for i := range records {
		r := &records[i]
		if !r.IsCompleted() || r.CompletionDate == nil {
			continue
		}
		key := r.CompletionDate.In(loc).Format(dateLayout)
		if _, ok := counts[key]; ok {
			counts[key]++
		}
	}

	days := make([]Day, totalDays)
	for i := 0; i < totalDays; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		count := counts[date]
		days[i] = Day{Date: date, Count: count, Level: Level(count)}
	}

	weeks := layoutWeeks(days, start)

	return Grid{
		StartDate:   start.Format(dateLayout),
		EndDate:     end.Format(dateLayout),
		Days:        days,
		Weeks:       weeks,
		MonthLabels: monthLabels(weeks),
		Stats:       buildStats(records, days, end),
	}
}

// Level maps a day's completion count to an intensity level 0-4.
// The thresholds are fixed: 0, 1-2, 3-5, 6-10, >10.
func Level(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= 2:
		return 1
	case count <= 5:
		return 2
	case count <= 10:
		return 3
	default:
		return 4
	}
}

// layoutWeeks arranges days into 7-cell week columns. The first week
// is left-padded with nil cells so weekday rows align (the start
// date's weekday determines the padding), and the final week is
// right-padded to a full 7 cells.
func layoutWeeks(days []Day, start time.Time) [][]*Day {
	var weeks [][]*Day
	week := make([]*Day, 0, 7)
	for i := 0; i < int(start.Weekday()); i++ {
		week = append(week, nil)
	}

	for i := range days {
		week = append(week, &days[i])
		if len(week) == 7 {
			weeks = append(weeks, week)
			week = make([]*Day, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, nil)
		}
		weeks = append(weeks, week)
	}
	return weeks
}

// monthLabels derives label breakpoints by walking weeks left to
// right: a label is emitted the first time a week's first non-nil day
// belongs to a different month than the previously labeled week.
func monthLabels(weeks [][]*Day) []MonthLabel {
	var labels []MonthLabel
	lastMonth := time.Month(0)

	for weekIndex, week := range weeks {
		var first *Day
		for _, day := range week {
			if day != nil {
				first = day
				break
			}
		}
		if first == nil {
			continue
		}
		date, err := time.Parse(dateLayout, first.Date)
		if err != nil {
			continue
		}
		if date.Month() != lastMonth {
			labels = append(labels, MonthLabel{
				Month: date.Format("Jan"),
				Left:  weekIndex * weekPitch,
			})
			lastMonth = date.Month()
		}
	}
	return labels
}

// buildStats computes the dashboard summary from the record set and
// the bucketed days.
func buildStats(records []task.Task, days []Day, end time.Time) Stats {
	stats := Stats{Total: len(records)}
	for i := range records {
		if records[i].IsCompleted() {
			stats.Completed++
		}
	}
	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}

	for i := range days {
		d := &days[i]
		if d.Count > 0 && (stats.BusiestDay == nil || d.Count > stats.BusiestDay.Count) {
			stats.BusiestDay = &BusiestDay{Date: d.Date, Count: d.Count}
		}
	}

	stats.CurrentStreak, stats.LongestStreak = streaks(days, end)
	return stats
}

// streaks computes the current streak (consecutive active days ending
// today, or yesterday when today has no activity yet) and the longest
// streak in the window.
func streaks(days []Day, end time.Time) (current, longest int) {
	if len(days) == 0 {
		return 0, 0
	}

	run := 0
	for _, day := range days {
		if day.Count > 0 {
			run++
			if run > longest {
				longest = run
			}
		} else {
			run = 0
		}
	}

	today := end.Format(dateLayout)
	yesterday := end.AddDate(0, 0, -1).Format(dateLayout)

	startIdx := -1
	for i := len(days) - 1; i >= 0; i-- {
		if days[i].Date == today && days[i].Count > 0 {
			startIdx = i
			break
		}
		if days[i].Date == yesterday {
			if days[i].Count > 0 {
				startIdx = i
			}
			break
		}
	}
	if startIdx < 0 {
		return 0, longest
	}

	for i := startIdx; i >= 0; i-- {
		if days[i].Count > 0 {
			current++
		} else {
			break
		}
	}
	return current, longest
}

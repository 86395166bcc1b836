package heatmap

import (
	"reflect"
	"testing"
	"time"

	"github.com/randalmurphal/pulseboard/internal/task"
)

var fixedToday = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func completedOn(externalID, date string) task.Task {
	ts, err := time.Parse(time.RFC3339, date)
	if err != nil {
		panic(err)
	}
	return task.Task{
		ExternalID:     externalID,
		Name:           externalID,
		Status:         strPtr("completed"),
		CompletionDate: &ts,
	}
}

func dayByDate(g Grid, date string) *Day {
	for i := range g.Days {
		if g.Days[i].Date == date {
			return &g.Days[i]
		}
	}
	return nil
}

func TestLevelThresholds(t *testing.T) {
	counts := []int{0, 1, 2, 3, 5, 6, 10, 11}
	want := []int{0, 1, 1, 2, 2, 3, 3, 4}

	for i, count := range counts {
		if got := Level(count); got != want[i] {
			t.Errorf("Level(%d) = %d, want %d", count, got, want[i])
		}
	}
}

func TestBuildEmpty(t *testing.T) {
	g := Build(nil, fixedToday)

	if len(g.Days) != WindowDays+1 {
		t.Errorf("len(Days) = %d, want %d", len(g.Days), WindowDays+1)
	}
	if g.StartDate != "2023-06-16" || g.EndDate != "2024-06-15" {
		t.Errorf("interval = [%s, %s], want [2023-06-16, 2024-06-15]", g.StartDate, g.EndDate)
	}
	for _, d := range g.Days {
		if d.Count != 0 || d.Level != 0 {
			t.Fatalf("day %s: count=%d level=%d, want zeros", d.Date, d.Count, d.Level)
		}
	}
	if g.Stats.Total != 0 || g.Stats.Completed != 0 || g.Stats.CompletionRate != 0 {
		t.Errorf("stats = %+v, want zeros", g.Stats)
	}
	if g.Stats.BusiestDay != nil {
		t.Errorf("BusiestDay = %+v, want nil", g.Stats.BusiestDay)
	}
}

func TestBuildCountsAndLevels(t *testing.T) {
	var records []task.Task
	// 4 completions on one day, 1 on another
	for i := 0; i < 4; i++ {
		records = append(records, completedOn(string(rune('a'+i)), "2024-06-10T08:00:00Z"))
	}
	records = append(records, completedOn("solo", "2024-06-01T23:00:00Z"))

	g := Build(records, fixedToday)

	busy := dayByDate(g, "2024-06-10")
	if busy == nil || busy.Count != 4 || busy.Level != 2 {
		t.Errorf("2024-06-10 = %+v, want count 4 level 2", busy)
	}
	single := dayByDate(g, "2024-06-01")
	if single == nil || single.Count != 1 || single.Level != 1 {
		t.Errorf("2024-06-01 = %+v, want count 1 level 1", single)
	}
	if g.Stats.BusiestDay == nil || g.Stats.BusiestDay.Date != "2024-06-10" {
		t.Errorf("BusiestDay = %+v, want 2024-06-10", g.Stats.BusiestDay)
	}
}

func TestWindowExclusion(t *testing.T) {
	old := completedOn("old", fixedToday.AddDate(0, 0, -400).Format(time.RFC3339))
	today := completedOn("today", "2024-06-15T09:00:00Z")
	boundary := completedOn("boundary", "2023-06-16T00:00:00Z")
	justOutside := completedOn("outside", "2023-06-15T12:00:00Z")

	g := Build([]task.Task{old, today, boundary, justOutside}, fixedToday)

	sum := 0
	for _, d := range g.Days {
		sum += d.Count
	}
	// old and justOutside contribute nothing; today and boundary count.
	if sum != 2 {
		t.Errorf("total bucketed completions = %d, want 2", sum)
	}
	if d := dayByDate(g, "2024-06-15"); d == nil || d.Count != 1 {
		t.Errorf("today's bucket = %+v, want count 1", d)
	}
	if d := dayByDate(g, "2023-06-16"); d == nil || d.Count != 1 {
		t.Errorf("window start bucket = %+v, want count 1", d)
	}
}

func TestCaseInsensitiveStatus(t *testing.T) {
	date := "2024-06-10T08:00:00Z"
	ts, _ := time.Parse(time.RFC3339, date)

	records := []task.Task{
		completedOn("lower", date),
		{ExternalID: "title", Status: strPtr("Completed"), CompletionDate: &ts},
		{ExternalID: "upper", Status: strPtr("COMPLETED"), CompletionDate: &ts},
		{ExternalID: "active", Status: strPtr("active"), CompletionDate: &ts},
		{ExternalID: "alt", TaskStatus: strPtr("completed"), CompletionDate: &ts},
	}

	g := Build(records, fixedToday)
	if d := dayByDate(g, "2024-06-10"); d == nil || d.Count != 4 {
		t.Errorf("count = %+v, want 4 (three casings plus taskStatus fallback)", d)
	}
}

func TestMissingCompletionDateExcluded(t *testing.T) {
	// Completed but no completion date: stored and counted in stats,
	// absent from every bucket. Unparseable dates surface here as nil.
	records := []task.Task{
		{ExternalID: "no-date", Status: strPtr("completed")},
		completedOn("with-date", "2024-06-10T08:00:00Z"),
	}

	g := Build(records, fixedToday)

	sum := 0
	for _, d := range g.Days {
		sum += d.Count
	}
	if sum != 1 {
		t.Errorf("bucketed completions = %d, want 1", sum)
	}
	if g.Stats.Completed != 2 {
		t.Errorf("Stats.Completed = %d, want 2 (raw totals keep the record)", g.Stats.Completed)
	}
}

func TestCompletionRate(t *testing.T) {
	ts := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	active := task.Task{ExternalID: "a", Status: strPtr("active")}

	tests := []struct {
		name      string
		completed int
		total     int
		want      int
	}{
		{"empty", 0, 0, 0},
		{"one of three", 1, 3, 33},
		{"two of three", 2, 3, 67},
		{"all", 4, 4, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []task.Task
			for i := 0; i < tt.completed; i++ {
				records = append(records, task.Task{
					ExternalID:     string(rune('a' + i)),
					Status:         strPtr("completed"),
					CompletionDate: &ts,
				})
			}
			for i := tt.completed; i < tt.total; i++ {
				records = append(records, active)
			}

			g := Build(records, fixedToday)
			if g.Stats.CompletionRate != tt.want {
				t.Errorf("CompletionRate = %d, want %d", g.Stats.CompletionRate, tt.want)
			}
		})
	}
}

func TestWeekLayout(t *testing.T) {
	g := Build(nil, fixedToday)

	// 2023-06-16 is a Friday: 5 leading nil cells.
	lead := 5
	wantWeeks := (WindowDays + 1 + lead + 6) / 7
	if len(g.Weeks) != wantWeeks {
		t.Errorf("len(Weeks) = %d, want %d", len(g.Weeks), wantWeeks)
	}

	for i := 0; i < lead; i++ {
		if g.Weeks[0][i] != nil {
			t.Errorf("Weeks[0][%d] should be leading padding", i)
		}
	}
	if g.Weeks[0][lead] == nil || g.Weeks[0][lead].Date != "2023-06-16" {
		t.Errorf("first cell = %+v, want 2023-06-16", g.Weeks[0][lead])
	}

	// Every week is exactly 7 cells and every non-nil cell is unique.
	seen := make(map[string]bool)
	cells := 0
	for w, week := range g.Weeks {
		if len(week) != 7 {
			t.Fatalf("week %d has %d cells, want 7", w, len(week))
		}
		for _, day := range week {
			if day == nil {
				continue
			}
			if seen[day.Date] {
				t.Errorf("duplicate cell date %s", day.Date)
			}
			seen[day.Date] = true
			cells++
		}
	}
	if cells != WindowDays+1 {
		t.Errorf("non-nil cells = %d, want %d", cells, WindowDays+1)
	}

	// Last cell is today, remainder of the final week is padding.
	last := g.Weeks[len(g.Weeks)-1]
	var lastDate string
	for _, day := range last {
		if day != nil {
			lastDate = day.Date
		}
	}
	if lastDate != "2024-06-15" {
		t.Errorf("last cell = %s, want 2024-06-15", lastDate)
	}
}

func TestMonthLabels(t *testing.T) {
	g := Build(nil, fixedToday)

	if len(g.MonthLabels) == 0 {
		t.Fatal("no month labels")
	}
	// The first labeled week starts the interval: June 2023.
	if g.MonthLabels[0].Month != "Jun" || g.MonthLabels[0].Left != 0 {
		t.Errorf("first label = %+v, want Jun at 0", g.MonthLabels[0])
	}
	// A year window walks through 13 month transitions (Jun..Jun).
	if len(g.MonthLabels) != 13 {
		t.Errorf("len(MonthLabels) = %d, want 13", len(g.MonthLabels))
	}
	for i, l := range g.MonthLabels {
		if l.Left%weekPitch != 0 {
			t.Errorf("label %d offset %d is not a multiple of the cell pitch", i, l.Left)
		}
		if i > 0 && l.Left <= g.MonthLabels[i-1].Left {
			t.Errorf("label offsets must increase, got %d after %d", l.Left, g.MonthLabels[i-1].Left)
		}
	}
}

func TestStreaks(t *testing.T) {
	var records []task.Task
	// Three consecutive days ending today, and an older 5-day run.
	for i := 0; i < 3; i++ {
		date := fixedToday.AddDate(0, 0, -i).Format("2006-01-02") + "T08:00:00Z"
		records = append(records, completedOn(date, date))
	}
	for i := 0; i < 5; i++ {
		date := fixedToday.AddDate(0, 0, -30-i).Format("2006-01-02") + "T08:00:00Z"
		records = append(records, completedOn(date, date))
	}

	g := Build(records, fixedToday)
	if g.Stats.CurrentStreak != 3 {
		t.Errorf("CurrentStreak = %d, want 3", g.Stats.CurrentStreak)
	}
	if g.Stats.LongestStreak != 5 {
		t.Errorf("LongestStreak = %d, want 5", g.Stats.LongestStreak)
	}
}

func TestDeterminism(t *testing.T) {
	records := []task.Task{
		completedOn("a", "2024-06-10T08:00:00Z"),
		completedOn("b", "2024-05-01T08:00:00Z"),
		{ExternalID: "c", Status: strPtr("active")},
	}

	first := Build(records, fixedToday)
	second := Build(records, fixedToday)

	if !reflect.DeepEqual(first, second) {
		t.Error("Build is not deterministic for a fixed record set and today")
	}
}

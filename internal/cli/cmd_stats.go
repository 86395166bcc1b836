package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/pulseboard/internal/heatmap"
)

// newStatsCmd creates the stats command
func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the dashboard summary numbers",
		RunE: func(cmd *cobra.Command, args []string) error {
			appCfg, err := loadConfig()
			if err != nil {
				return err
			}

			store, err := openStore(appCfg)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.ListTasks(context.Background())
			if err != nil {
				return fmt.Errorf("list tasks: %w", err)
			}

			grid := heatmap.Build(records, time.Now())

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(grid.Stats)
			}

			stats := grid.Stats
			fmt.Printf("Tasks:           %d\n", stats.Total)
			fmt.Printf("Completed:       %d\n", stats.Completed)
			fmt.Printf("Completion rate: %d%%\n", stats.CompletionRate)
			fmt.Printf("Current streak:  %d day(s)\n", stats.CurrentStreak)
			fmt.Printf("Longest streak:  %d day(s)\n", stats.LongestStreak)
			if stats.BusiestDay != nil {
				fmt.Printf("Busiest day:     %s (%d completed)\n", stats.BusiestDay.Date, stats.BusiestDay.Count)
			}
			fmt.Printf("Last 30 days:    %s\n", renderRecent(grid.Days, 30))
			return nil
		},
	}
}

// levelGlyphs maps intensity levels to terminal cells.
var levelGlyphs = []rune{'·', '▂', '▄', '▆', '█'}

// renderRecent draws the trailing n days of the grid as one line,
// oldest first.
func renderRecent(days []heatmap.Day, n int) string {
	if len(days) > n {
		days = days[len(days)-n:]
	}
	out := make([]rune, len(days))
	for i, d := range days {
		out[i] = levelGlyphs[d.Level]
	}
	return string(out)
}

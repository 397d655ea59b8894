package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/choreboard/internal/board/application/queries"
	"github.com/felixgeelhaar/choreboard/internal/board/domain"
)

var (
	statsOffset int
	nextLimit   int
	nextPerson  string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show chore statistics",
	Long: `Display per-person weekly statistics and the upcoming open tasks.

Examples:
  choreboard stats person person_0              # This week for one person
  choreboard stats person person_0 --offset -1  # Last week
  choreboard stats next                         # Next three open tasks
  choreboard stats next --person person_1 --limit 5`,
	Aliases: []string{"insights"},
}

var statsPersonCmd = &cobra.Command{
	Use:   "person <person-id>",
	Short: "Show one person's week",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(EntryFlag())
		if err != nil {
			return err
		}

		stats, err := app.PersonWeekStatsHandler.Handle(cmd.Context(), queries.PersonWeekStatsQuery{
			EntryID:    entry,
			PersonID:   args[0],
			WeekOffset: statsOffset,
		})
		if err != nil {
			return err
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), stats)
		}
		printWeekStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var statsNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Show the next open tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		entry, err := app.ResolveEntry(EntryFlag())
		if err != nil {
			return err
		}

		query := queries.NextTasksQuery{EntryID: entry, PersonID: nextPerson}
		if cmd.Flags().Changed("limit") {
			limit := nextLimit
			query.Limit = &limit
		}
		summary, err := app.NextTasksHandler.Handle(cmd.Context(), query)
		if err != nil {
			return err
		}

		if JSONOutput() {
			return PrintJSON(cmd.OutOrStdout(), summary)
		}
		printUpcoming(cmd.OutOrStdout(), summary)
		return nil
	},
}

func printWeekStats(w io.Writer, stats *domain.WeekStats) {
	name := stats.PersonName
	if name == "" {
		name = stats.PersonID
	}
	fmt.Fprintf(w, "\n  %s - week %d (%s to %s)\n", name, stats.WeekNumber, stats.WeekStart, stats.WeekEnd)
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "  Total: %d   Done: %d   Remaining: %d\n", stats.Total, stats.Done, stats.Remaining)
	if stats.WeekOffset == 0 {
		fmt.Fprintf(w, "  Today: %d   Upcoming: %d\n", stats.Today, stats.Upcoming)
	}
	if len(stats.Tasks) == 0 {
		fmt.Fprintln(w, "\n  No tasks this week.")
		return
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, row := range stats.Tasks {
		mark := "[ ]"
		if row.Done {
			mark = "[x]"
		}
		days := make([]string, 0, len(row.Days))
		for _, d := range row.Days {
			days = append(days, string(d))
		}
		fmt.Fprintf(w, "  %s %-32s %s\n", mark, row.Title, strings.Join(days, ","))
	}
}

func printUpcoming(w io.Writer, summary *domain.UpcomingSummary) {
	if summary.Count == 0 {
		fmt.Fprintln(w, "No upcoming tasks.")
		return
	}
	for _, task := range summary.Tasks {
		who := strings.Join(task.AssigneeNames, ", ")
		if who == "" {
			who = "unassigned"
		}
		fmt.Fprintf(w, "  %s  %-32s %s\n", task.Date, task.Title, who)
	}
}

func init() {
	statsPersonCmd.Flags().IntVar(&statsOffset, "offset", 0, "week offset from the current week")
	statsNextCmd.Flags().IntVar(&nextLimit, "limit", 3, "number of tasks to show")
	statsNextCmd.Flags().StringVar(&nextPerson, "person", "", "only tasks assigned to this person id")

	statsCmd.AddCommand(statsPersonCmd)
	statsCmd.AddCommand(statsNextCmd)
	rootCmd.AddCommand(statsCmd)
}

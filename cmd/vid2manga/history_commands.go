package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vid2manga/internal/history"
	"vid2manga/internal/language"
	"vid2manga/internal/textutil"
)

const shortIDLength = 8

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past conversion attempts",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent attempts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				attempts, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if jsonOut {
					views := make([]attemptJSON, 0, len(attempts))
					for _, attempt := range attempts {
						views = append(views, attemptView(attempt))
					}
					return writeJSON(cmd, views)
				}
				out := cmd.OutOrStdout()
				if len(attempts) == 0 {
					fmt.Fprintln(out, "No attempts recorded yet")
					return nil
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "File", "Language", "Phase", "Job", "Started", "Duration"},
					historyRows(attempts),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, summarizeStats(stats))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of attempts to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print attempts as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <attempt-id-prefix>",
		Short: "Show one attempt in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				attempt, err := store.Get(cmd.Context(), args[0])
				switch {
				case errors.Is(err, history.ErrNotFound):
					return fmt.Errorf("no attempt matches %q", args[0])
				case errors.Is(err, history.ErrAmbiguous):
					return fmt.Errorf("%q matches more than one attempt; use a longer prefix", args[0])
				case err != nil:
					return err
				}
				if jsonOut {
					return writeJSON(cmd, attemptView(attempt))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderKeyValues(attemptDetails(attempt)))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the attempt as JSON")
	return cmd
}

func historyRows(attempts []*history.Attempt) [][]string {
	rows := make([][]string, 0, len(attempts))
	for _, attempt := range attempts {
		rows = append(rows, []string{
			shortID(attempt.ID),
			textutil.Excerpt(attempt.FileName, 40),
			attempt.Language,
			titleWord(attempt.Phase),
			valueOrDash(attempt.JobID),
			attempt.StartedAt.Local().Format("2006-01-02 15:04"),
			formatDuration(attempt.Duration()),
		})
	}
	return rows
}

func attemptDetails(a *history.Attempt) [][2]string {
	finished := "-"
	if a.FinishedAt != nil {
		finished = a.FinishedAt.Local().Format(time.RFC3339)
	}
	pairs := [][2]string{
		{"ID", a.ID},
		{"File", a.FileName},
		{"Path", valueOrDash(a.FilePath)},
		{"Type", valueOrDash(a.MediaType)},
		{"Size", formatSize(a.SizeBytes)},
		{"Source", valueOrDash(a.Source)},
		{"Language", fmt.Sprintf("%s (%s)", language.DisplayName(a.Language), a.Language)},
		{"Job", valueOrDash(a.JobID)},
		{"Phase", titleWord(a.Phase)},
		{"Last status", valueOrDash(a.LastStatus)},
		{"Started", a.StartedAt.Local().Format(time.RFC3339)},
		{"Finished", finished},
		{"Duration", formatDuration(a.Duration())},
	}
	if a.VideoURL != "" || a.AudioURL != "" || a.Text != "" {
		pairs = append(pairs,
			[2]string{"Video", valueOrDash(a.VideoURL)},
			[2]string{"Audio", valueOrDash(a.AudioURL)},
			[2]string{"Text", valueOrDash(textutil.Excerpt(a.Text, 72))},
		)
	}
	if a.ErrorMessage != "" {
		pairs = append(pairs, [2]string{"Error", a.ErrorMessage})
	}
	return pairs
}

// summarizeStats renders per-phase totals in a fixed phase order.
func summarizeStats(stats map[string]int) string {
	total := 0
	for _, n := range stats {
		total += n
	}
	order := []string{"succeeded", "failed", "polling", "submitting"}
	parts := make([]string, 0, len(order))
	for _, phase := range order {
		if n := stats[phase]; n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, phase))
		}
	}
	summary := fmt.Sprintf("%d attempts total", total)
	if len(parts) > 0 {
		summary += ": " + strings.Join(parts, ", ")
	}
	return summary
}

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func formatSize(bytes int64) string {
	return strconv.FormatFloat(float64(bytes)/(1024*1024), 'f', 2, 64) + " MB"
}

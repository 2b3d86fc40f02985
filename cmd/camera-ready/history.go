package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pdiddy/camera-ready/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent formatting runs",
	Long: `History lists completed formatting runs from the local run log, most
recent first. Use --search to filter by manuscript title with
full-text search.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := history.Open(loadConfig().Storage.HistoryDB)
	if err != nil {
		return err
	}
	defer store.Close()

	query, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")

	var runs []history.Run
	if query != "" {
		runs, err = store.Search(context.Background(), query)
	} else {
		runs, err = store.Recent(context.Background(), limit)
	}
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-8s  %-40s  %-14s  %4s  %4s  %4s  %s\n",
		"Session", "Title", "Template", "Sect", "Figs", "Refs", "When")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for _, run := range runs {
		title := run.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-8s  %-40s  %-14s  %4d  %4d  %4d  %s\n",
			run.SessionID, title, run.Template, run.Sections, run.Figures, run.References,
			humanize.Time(run.CreatedAt))
	}

	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(runs))
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 0, "maximum runs to show (0 = default 20)")
	historyCmd.Flags().String("search", "", "full-text search over run titles")
	historyCmd.Flags().Bool("json", false, "output runs as JSON")

	rootCmd.AddCommand(historyCmd)
}

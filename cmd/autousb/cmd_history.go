package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"autousb/cmd/autousb/ui"
	"autousb/internal/store"
	"autousb/internal/types"
)

var historyLimit int

// historyCmd shows the build ledger
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent builds and publishes",
	RunE:  showHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of entries per table (0 = all)")
}

func showHistory(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if ledger == nil {
		fmt.Fprintln(out, "Build history is disabled (history.enabled: false).")
		return nil
	}

	builds, err := ledger.RecentBuilds(historyLimit)
	if err != nil {
		return types.NewError(types.KindIOFailure, "cli.history", "could not read build history", err)
	}
	publishes, err := ledger.RecentPublishes(historyLimit)
	if err != nil {
		return types.NewError(types.KindIOFailure, "cli.history", "could not read publish history", err)
	}
	totals, err := ledger.Stats()
	if err != nil {
		return types.NewError(types.KindIOFailure, "cli.history", "could not count history", err)
	}

	styles := ui.DefaultStyles()
	fmt.Fprintln(out, styles.Title.Render("Builds"))
	if len(builds) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("  none"))
	} else {
		fmt.Fprintln(out, buildTable(builds))
	}

	fmt.Fprintln(out, styles.Title.Render("Publishes"))
	if len(publishes) == 0 {
		fmt.Fprintln(out, styles.Muted.Render("  none"))
	} else {
		fmt.Fprintln(out, publishTable(publishes))
	}
	fmt.Fprintln(out, styles.Muted.Render(fmt.Sprintf("%d build(s) and %d publish(es) recorded in total",
		totals["builds"], totals["publishes"])))
	return nil
}

func buildTable(records []store.BuildRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "BACKEND", "RESULT", "DESTINATION", "TOOK")
	for _, r := range records {
		dest := r.Destination
		if dest == "" {
			dest = r.Requested
		}
		t.Row(formatWhen(r.CreatedAt), r.Backend, outcome(r.Success, r.Error), dest, r.Duration.Round(time.Millisecond).String())
	}
	return t.String()
}

func publishTable(records []store.PublishRecord) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("WHEN", "VOLUME", "RESULT", "EXECUTABLE", "COPIED")
	for _, r := range records {
		t.Row(formatWhen(r.CreatedAt), r.Volume, outcome(r.Success, r.Error), r.Executable, yesNo(r.Copied))
	}
	return t.String()
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func outcome(success bool, errText string) string {
	if success {
		return "ok"
	}
	const width = 60
	if len(errText) > width {
		errText = errText[:width-3] + "..."
	}
	return "failed: " + errText
}

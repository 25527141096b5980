package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/pipeline"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	ruleHeavy = "═══════════════════════════════════════════════════════════"
	ruleLight = "───────────────────────────────────────────────────────────"
)

// 터미널이 아니면 color가 자동으로 비활성화됨
var (
	successText = color.New(color.FgGreen).SprintFunc()
	failureText = color.New(color.FgRed, color.Bold).SprintFunc()
	skipText    = color.New(color.FgYellow).SprintFunc()
	warnText    = color.New(color.FgYellow).SprintFunc()
)

// PrintHeader prints a formatted command header to w
func PrintHeader(w io.Writer, title string, lines ...string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ruleHeavy)
	fmt.Fprintf(w, "  %s\n", title)
	if len(lines) > 0 {
		fmt.Fprintln(w, ruleLight)
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
	}
	fmt.Fprintln(w, ruleHeavy)
}

// PrintWarnings prints data-quality warnings, one per line
func PrintWarnings(w io.Writer, warnings contracts.Warnings) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n⚠️  %s\n", warnText(fmt.Sprintf("%d warning(s)", len(warnings))))
	for _, warn := range warnings {
		fmt.Fprintf(w, "   %s\n", warn)
	}
}

// PrintResults prints one line per instrument run
// Example: ✅ ES        success   rolls=12 rows=3021 points=3021 (0.42s)
func PrintResults(w io.Writer, results []pipeline.InstrumentResult) {
	fmt.Fprintln(w)
	for _, r := range results {
		icon, paint := "✅", successText
		switch r.Status {
		case contracts.RunFailed:
			icon, paint = "❌", failureText
		case contracts.RunNoData:
			icon, paint = "⏭️", skipText
		}
		status := paint(fmt.Sprintf("%-8s", r.Status))

		mode := "full"
		if r.Incremental {
			mode = "incremental"
		}

		fmt.Fprintf(w, "%s %-10s %s %-11s rolls=%d rows=%d points=%d warnings=%d (%.2fs)\n",
			icon, r.Instrument, status, mode, r.Rolls, r.Rows, r.Points, len(r.Warnings), r.Duration.Seconds())
		if r.Error != "" {
			fmt.Fprintf(w, "   %s: %s\n", r.FailedStage.ShortName(), failureText(r.Error))
		}
	}
}

// PrintSummary prints batch totals
func PrintSummary(w io.Writer, s pipeline.BatchSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, ruleLight)
	fmt.Fprintf(w, "  Total     : %d\n", s.Total)
	fmt.Fprintf(w, "  Succeeded : %s\n", successText(s.Succeeded))
	fmt.Fprintf(w, "  Failed    : %s\n", failureText(s.Failed))
	fmt.Fprintf(w, "  No data   : %d\n", s.NoData)
	fmt.Fprintf(w, "  Warnings  : %d\n", s.Warnings)
	fmt.Fprintf(w, "  Duration  : %s\n", s.Duration.Round(time.Millisecond))
	fmt.Fprintln(w, ruleLight)
}

// writeOutput writes to path, or stdout when path is empty or "-"
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

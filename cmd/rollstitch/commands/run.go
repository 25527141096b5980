package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wonny/rollstitch/backend/internal/pipeline"
	"github.com/wonny/rollstitch/backend/internal/source"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [instrument...]",
	Short: "S0-S4 파이프라인 실행 및 저장",
	Long: `종목별 파이프라인을 실행하고 결과를 저장합니다.

종목을 지정하지 않으면 roll config에 등록되고 가격 데이터가 있는 모든 종목을 처리합니다.
저장된 시계열이 있으면 증분 업데이트, 없거나 --rebuild면 전체 재생성합니다.
한 종목의 실패는 다른 종목에 영향을 주지 않습니다.

Example:
  go run ./cmd/rollstitch run
  go run ./cmd/rollstitch run ES NQ --rebuild
  go run ./cmd/rollstitch run --export out/`,
	RunE: runPipeline,
}

var (
	runRebuild bool
	runExport  string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runRebuild, "rebuild", false, "ignore persisted series and rebuild from scratch")
	runCmd.Flags().StringVar(&runExport, "export", "", "also write CSV outputs to this directory")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	instruments, err := a.instruments(ctx, args)
	if err != nil {
		return err
	}
	if len(instruments) == 0 {
		fmt.Println("No instruments to process")
		return nil
	}

	runner, err := a.runner(runRebuild)
	if err != nil {
		return err
	}

	mode := "incremental"
	if runRebuild {
		mode = "rebuild"
	}
	PrintHeader(os.Stdout, "Continuous Futures Pipeline",
		fmt.Sprintf("Instruments : %d", len(instruments)),
		fmt.Sprintf("Mode        : %s", mode),
		fmt.Sprintf("Workers     : %d", a.cfg.Pipeline.Workers),
	)

	results, summary := runner.RunAll(ctx, instruments)
	PrintResults(os.Stdout, results)
	PrintSummary(os.Stdout, summary)

	if runExport != "" {
		for _, r := range results {
			if !r.OK() {
				continue
			}
			if err := exportResult(runExport, r); err != nil {
				return err
			}
		}
		fmt.Printf("\n📁 CSV written to %s\n", runExport)
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d instruments failed", summary.Failed, summary.Total)
	}
	return nil
}

// exportResult writes the three series of r to dir/<instrument>/
func exportResult(dir string, r pipeline.InstrumentResult) error {
	out := filepath.Join(dir, r.Instrument)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}

	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"roll_calendar.csv", func(w io.Writer) error { return source.WriteRollCalendar(w, r.Schedule) }},
		{"multiple_prices.csv", func(w io.Writer) error { return source.WriteMultiplePrices(w, r.Multiple) }},
		{"adjusted_prices.csv", func(w io.Writer) error { return source.WriteAdjustedPrices(w, r.Adjusted) }},
	}
	for _, f := range files {
		if err := writeOutput(filepath.Join(out, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

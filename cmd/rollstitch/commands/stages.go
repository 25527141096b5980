package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/rollstitch/backend/internal/adjusted"
	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/dates"
	"github.com/wonny/rollstitch/backend/internal/multiple"
	"github.com/wonny/rollstitch/backend/internal/rollcal"
	"github.com/wonny/rollstitch/backend/internal/source"
)

// calendarCmd represents the calendar command
var calendarCmd = &cobra.Command{
	Use:   "calendar [instrument]",
	Short: "S1 롤 캘린더 생성 (저장 안 함)",
	Long: `월물 가격에서 롤 캘린더를 생성해 CSV로 출력합니다.

출력 컬럼: DATE_TIME, current_contract, next_contract, carry_contract

Example:
  go run ./cmd/rollstitch calendar ES
  go run ./cmd/rollstitch calendar ES --extend 4 --analyze --out es_roll.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runCalendar,
}

// multipleCmd represents the multiple command
var multipleCmd = &cobra.Command{
	Use:   "multiple [instrument]",
	Short: "S1-S2 멀티플 가격 생성 (저장 안 함)",
	Long: `롤 캘린더를 생성한 뒤 PRICE/FORWARD/CARRY 멀티플 가격을 CSV로 출력합니다.

Example:
  go run ./cmd/rollstitch multiple ES --out es_multiple.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runMultiple,
}

// adjustCmd represents the adjust command
var adjustCmd = &cobra.Command{
	Use:   "adjust [instrument]",
	Short: "S1-S3 연속 조정 가격 생성 (저장 안 함)",
	Long: `멀티플 가격을 백어드저스트해 연속 가격을 CSV로 출력합니다.

Methods:
  panama      - 롤 갭을 더해서 제거 (기본값, difference와 동일)
  ratio       - 롤 갭 비율을 곱해서 제거

Example:
  go run ./cmd/rollstitch adjust ES
  go run ./cmd/rollstitch adjust CL --method ratio --returns`,
	Args: cobra.ExactArgs(1),
	RunE: runAdjust,
}

var (
	stageOut        string
	calendarExtend  int
	calendarAnalyze bool
	adjustMethod    string
	adjustReturns   bool
)

func init() {
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(multipleCmd)
	rootCmd.AddCommand(adjustCmd)

	for _, c := range []*cobra.Command{calendarCmd, multipleCmd, adjustCmd} {
		c.Flags().StringVarP(&stageOut, "out", "o", "", "output CSV file (default stdout)")
	}
	calendarCmd.Flags().IntVar(&calendarExtend, "extend", 0, "project N additional rolls past the last one")
	calendarCmd.Flags().BoolVar(&calendarAnalyze, "analyze", false, "print price gap at each roll")
	adjustCmd.Flags().StringVar(&adjustMethod, "method", "", "stitch method (default per instrument, then STITCH_METHOD)")
	adjustCmd.Flags().BoolVar(&adjustReturns, "returns", false, "print daily returns instead of prices")
}

// stageRun holds the in-memory outputs of a local stage run
type stageRun struct {
	instrument string
	prices     contracts.ContractPrices
	params     contracts.RollParameters
	schedule   *contracts.RollSchedule
	multiple   *contracts.MultiplePriceSeries
	adjusted   *contracts.AdjustedPriceSeries
	warnings   contracts.Warnings
}

// runStages executes S0 through last without persisting anything
func (a *app) runStages(ctx context.Context, instrument string, last contracts.Stage, method contracts.StitchMethod) (*stageRun, error) {
	run := &stageRun{instrument: instrument}

	// S0
	prices, err := a.source.LoadContractPrices(ctx, instrument)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", contracts.StageLoad.ShortName(), err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("%s: %w", contracts.StageLoad.ShortName(), contracts.ErrNoData)
	}
	run.prices = prices

	params, err := a.roll.Parameters(instrument)
	if err != nil {
		return nil, fmt.Errorf("roll parameters: %w", err)
	}
	run.params = params

	// S1
	schedule, ws, err := rollcal.NewGenerator(rollcal.DefaultConfig(), a.log).Generate(prices, params)
	run.warnings = append(run.warnings, ws...)
	if err != nil {
		return run, fmt.Errorf("%s: %w", contracts.StageRollCalendar.ShortName(), err)
	}
	run.schedule = schedule
	if last == contracts.StageRollCalendar {
		return run, nil
	}

	// S2
	series, ws, err := multiple.NewBuilder(multiple.DefaultConfig(), a.log).Build(prices, schedule)
	run.warnings = append(run.warnings, ws...)
	if err != nil {
		return run, fmt.Errorf("%s: %w", contracts.StageMultiplePrices.ShortName(), err)
	}
	run.multiple = series
	if last == contracts.StageMultiplePrices {
		return run, nil
	}

	// S3
	adj, ws, err := adjusted.NewStitcher(a.log).Adjust(series, method)
	run.warnings = append(run.warnings, ws...)
	if err != nil {
		return run, fmt.Errorf("%s: %w", contracts.StageAdjustedPrices.ShortName(), err)
	}
	run.adjusted = adj
	return run, nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	run, err := a.runStages(ctx, args[0], contracts.StageRollCalendar, "")
	if run != nil {
		PrintWarnings(os.Stderr, run.warnings)
	}
	if err != nil {
		return err
	}

	schedule := run.schedule
	if calendarExtend > 0 {
		schedule, err = rollcal.Extend(schedule, run.params, calendarExtend)
		if err != nil {
			return fmt.Errorf("extend calendar: %w", err)
		}
	}

	if calendarAnalyze {
		printRollQuality(os.Stderr, rollcal.AnalyzeRolls(run.schedule, run.prices))
	}
	for _, issue := range rollcal.Check(run.schedule, run.prices) {
		fmt.Fprintf(os.Stderr, "   ❗ %s\n", issue)
	}

	return writeOutput(stageOut, func(w io.Writer) error {
		return source.WriteRollCalendar(w, schedule)
	})
}

func runMultiple(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	run, err := a.runStages(ctx, args[0], contracts.StageMultiplePrices, "")
	if run != nil {
		PrintWarnings(os.Stderr, run.warnings)
	}
	if err != nil {
		return err
	}

	report := multiple.Validate(run.multiple)
	fmt.Fprintf(os.Stderr, "\n📊 rows=%d rolls=%d missing_forward=%.1f%% missing_carry=%.1f%%\n",
		report.Rows, run.schedule.Len(), report.MissingPercent["forward"], report.MissingPercent["carry"])
	printIssues(os.Stderr, report.Issues, report.Warnings)

	return writeOutput(stageOut, func(w io.Writer) error {
		return source.WriteMultiplePrices(w, run.multiple)
	})
}

func runAdjust(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	instrument := args[0]
	method, err := a.stageMethod(instrument)
	if err != nil {
		return err
	}

	run, err := a.runStages(ctx, instrument, contracts.StageAdjustedPrices, method)
	if run != nil {
		PrintWarnings(os.Stderr, run.warnings)
	}
	if err != nil {
		return err
	}

	report := adjusted.Validate(run.adjusted)
	fmt.Fprintf(os.Stderr, "\n📊 method=%s points=%d min=%.4f max=%.4f negative=%d large_moves=%d\n",
		method, report.Points, report.Min, report.Max, report.Negative, report.LargeMoves)
	printIssues(os.Stderr, report.Issues, report.Warnings)

	if adjustReturns {
		return writeOutput(stageOut, func(w io.Writer) error {
			return writeReturns(w, adjusted.Returns(run.adjusted))
		})
	}
	return writeOutput(stageOut, func(w io.Writer) error {
		return source.WriteAdjustedPrices(w, run.adjusted)
	})
}

// stageMethod resolves --method, then the instrument setting, then STITCH_METHOD
func (a *app) stageMethod(instrument string) (contracts.StitchMethod, error) {
	if adjustMethod != "" {
		return contracts.ParseStitchMethod(adjustMethod)
	}
	fallback, err := a.method()
	if err != nil {
		return "", err
	}
	return a.roll.StitchMethod(instrument, fallback)
}

func printRollQuality(w io.Writer, rolls []rollcal.RollQuality) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s %-8s %-8s %12s %12s %10s %8s\n", "DATE", "CURRENT", "NEXT", "CUR_PRICE", "NEXT_PRICE", "GAP", "GAP%")
	for _, q := range rolls {
		if !q.Defined() {
			fmt.Fprintf(w, "%-10s %-8s %-8s %12s\n", q.RollDate.Format(dates.Layout), q.Current.String(), q.Next.String(), "n/a")
			continue
		}
		fmt.Fprintf(w, "%-10s %-8s %-8s %12.4f %12.4f %10.4f %7.2f%%\n",
			q.RollDate.Format(dates.Layout), q.Current.String(), q.Next.String(), q.CurrentPrice, q.NextPrice, q.Gap, q.GapPercent)
	}
}

func printIssues(w io.Writer, issues, warnings []string) {
	for _, issue := range issues {
		fmt.Fprintf(w, "   ❗ %s\n", issue)
	}
	for _, warn := range warnings {
		fmt.Fprintf(w, "   ⚠️  %s\n", warn)
	}
}

func writeReturns(w io.Writer, points []adjusted.ReturnPoint) error {
	if _, err := fmt.Fprintln(w, "DATE_TIME,returns,log_returns,cum_returns"); err != nil {
		return err
	}
	for _, p := range points {
		if _, err := fmt.Fprintf(w, "%s,%g,%g,%g\n", p.Date.Format(dates.Layout), p.Simple, p.Log, p.Cumulative); err != nil {
			return err
		}
	}
	return nil
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	rollConfigFile string
	env            string
	verbose        bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rollstitch",
	Short: "Rollstitch - 연속 선물 가격 시계열 생성기",
	Long: `Rollstitch Unified CLI

월물별 선물 가격으로부터 롤 캘린더, 멀티플 가격, 백어드저스트 연속 가격을 생성합니다.
5단계 파이프라인: 로드 → 롤 캘린더 → 멀티플 가격 → 조정 가격 → 저장.

Usage:
  go run ./cmd/rollstitch [command]

Examples:
  go run ./cmd/rollstitch calendar ES
  go run ./cmd/rollstitch run
  go run ./cmd/rollstitch api
  go run ./cmd/rollstitch config-check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&rollConfigFile, "roll-config", "", "roll config YAML (default is ROLL_CONFIG_PATH)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment override (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

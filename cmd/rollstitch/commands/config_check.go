package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/rollstitch/backend/internal/contracts"
	"github.com/wonny/rollstitch/backend/internal/rollconfig"
)

// configCheckCmd represents the config-check command
var configCheckCmd = &cobra.Command{
	Use:   "config-check",
	Short: "roll config 검증",
	Long: `roll config YAML을 로드해 검증하고 종목별 최종 파라미터와 해시를 출력합니다.

이 명령어는:
- 알 수 없는 필드/잘못된 cycle 코드 검출
- asset class 기본값 병합 결과 표시
- 설정 해시 출력 (변경 추적용)

Example:
  go run ./cmd/rollstitch config-check
  go run ./cmd/rollstitch config-check --roll-config configs/roll_config.yaml`,
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := cfg.Pipeline.RollConfigPath
	fmt.Printf("Loading %s...\n", path)

	roll, _, err := rollconfig.Load(path)
	if err != nil {
		return fmt.Errorf("❌ invalid roll config: %w", err)
	}

	hash, err := rollconfig.Hash(roll)
	if err != nil {
		return fmt.Errorf("hash roll config: %w", err)
	}

	fallback, err := contracts.ParseStitchMethod(cfg.Pipeline.StitchMethod)
	if err != nil {
		return err
	}

	PrintHeader(os.Stdout, "Roll Config",
		fmt.Sprintf("Instruments : %d", len(roll.Instruments)),
		fmt.Sprintf("Hash        : %s", hash[:16]),
	)

	fmt.Printf("%-8s %-10s %-6s %-6s %6s %6s %6s %-8s\n", "CODE", "CLASS", "HOLD", "PRICED", "ROLL", "EXPIRY", "CARRY", "METHOD")
	for _, code := range roll.Codes() {
		inst, _ := roll.Instrument(code)
		params, err := roll.Parameters(code)
		if err != nil {
			return fmt.Errorf("❌ %s: %w", code, err)
		}
		method, err := roll.StitchMethod(code, fallback)
		if err != nil {
			return fmt.Errorf("❌ %s: %w", code, err)
		}
		fmt.Printf("%-8s %-10s %-6s %-6s %6d %6d %6d %-8s\n",
			code, inst.AssetClass, params.HoldCycle, params.PricedCycle,
			params.RollOffsetDays, params.ExpiryOffset, params.CarryOffset, method)
	}

	fmt.Println("\n✅ Roll config is valid")
	return nil
}

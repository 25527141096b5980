package rollconfig

import (
	"errors"
	"fmt"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks that every instrument resolves to valid roll parameters
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	if len(cfg.Instruments) == 0 {
		return ValidationError{"instruments", "at least one instrument required"}
	}

	for class, roll := range cfg.Defaults {
		if roll.HoldCycle != "" {
			if _, err := contracts.ParseCycle(roll.HoldCycle); err != nil {
				return ValidationError{fmt.Sprintf("defaults.%s.hold_cycle", class), err.Error()}
			}
		}
	}

	for _, code := range cfg.Codes() {
		inst := cfg.Instruments[code]
		if inst.AssetClass != "" {
			if _, ok := cfg.Defaults[inst.AssetClass]; !ok && inst.HoldCycle == "" {
				return ValidationError{fmt.Sprintf("instruments.%s.asset_class", code),
					fmt.Sprintf("no defaults for %q and no hold_cycle", inst.AssetClass)}
			}
		}
		if inst.PointSize < 0 {
			return ValidationError{fmt.Sprintf("instruments.%s.point_size", code), "must be >= 0"}
		}

		if _, err := cfg.Parameters(code); err != nil {
			var cfgErr *contracts.ConfigError
			if errors.As(err, &cfgErr) {
				return ValidationError{fmt.Sprintf("instruments.%s.%s", code, cfgErr.Field), cfgErr.Message}
			}
			return ValidationError{fmt.Sprintf("instruments.%s", code), err.Error()}
		}

		if _, err := cfg.StitchMethod(code, contracts.StitchPanama); err != nil {
			return ValidationError{fmt.Sprintf("instruments.%s.stitch_method", code), err.Error()}
		}
	}

	return nil
}

package rollconfig

import (
	"fmt"
	"sort"

	"github.com/wonny/rollstitch/backend/internal/contracts"
)

// Config is the per-instrument roll configuration file
// ⭐ SSOT: 종목별 롤 파라미터는 이 구조체로만 로드
type Config struct {
	Defaults    map[string]Roll       `yaml:"defaults" json:"defaults"`       // asset class → 기본 롤 파라미터
	Instruments map[string]Instrument `yaml:"instruments" json:"instruments"` // 종목 코드 → 설정
}

// Roll holds raw roll parameters. Unset fields inherit from the asset class
// defaults.
type Roll struct {
	HoldCycle      string `yaml:"hold_cycle,omitempty" json:"hold_cycle,omitempty"`
	PricedCycle    string `yaml:"priced_cycle,omitempty" json:"priced_cycle,omitempty"`
	RollOffsetDays *int   `yaml:"roll_offset_days,omitempty" json:"roll_offset_days,omitempty"`
	ExpiryOffset   *int   `yaml:"expiry_offset,omitempty" json:"expiry_offset,omitempty"`
	CarryOffset    *int   `yaml:"carry_offset,omitempty" json:"carry_offset,omitempty"`
}

// Instrument is the reference data of one futures instrument
type Instrument struct {
	Description  string  `yaml:"description" json:"description"`
	AssetClass   string  `yaml:"asset_class" json:"asset_class"`
	Currency     string  `yaml:"currency" json:"currency"`
	PointSize    float64 `yaml:"point_size" json:"point_size"`
	StitchMethod string  `yaml:"stitch_method,omitempty" json:"stitch_method,omitempty"` // 비어 있으면 전역 설정 사용
	Roll         `yaml:",inline" json:",inline"`
}

// merge fills unset fields of r from base
func (r Roll) merge(base Roll) Roll {
	if r.HoldCycle == "" {
		r.HoldCycle = base.HoldCycle
	}
	if r.PricedCycle == "" {
		r.PricedCycle = base.PricedCycle
	}
	if r.RollOffsetDays == nil {
		r.RollOffsetDays = base.RollOffsetDays
	}
	if r.ExpiryOffset == nil {
		r.ExpiryOffset = base.ExpiryOffset
	}
	if r.CarryOffset == nil {
		r.CarryOffset = base.CarryOffset
	}
	return r
}

// Codes returns the configured instrument codes in sorted order
func (c *Config) Codes() []string {
	codes := make([]string, 0, len(c.Instruments))
	for code := range c.Instruments {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Instrument returns the configuration of code
func (c *Config) Instrument(code string) (Instrument, bool) {
	inst, ok := c.Instruments[code]
	return inst, ok
}

// Parameters resolves the validated roll parameters of code
func (c *Config) Parameters(code string) (contracts.RollParameters, error) {
	inst, ok := c.Instruments[code]
	if !ok {
		return contracts.RollParameters{}, fmt.Errorf("instrument %s not configured", code)
	}

	roll := inst.Roll.merge(c.Defaults[inst.AssetClass])
	if roll.PricedCycle == "" {
		roll.PricedCycle = roll.HoldCycle
	}
	if roll.RollOffsetDays == nil {
		return contracts.RollParameters{}, &contracts.ConfigError{Field: "roll_offset_days", Message: "required"}
	}

	return contracts.NewRollParameters(
		roll.HoldCycle,
		roll.PricedCycle,
		*roll.RollOffsetDays,
		intOr(roll.ExpiryOffset, 0),
		intOr(roll.CarryOffset, -1),
	)
}

// StitchMethod returns the stitch method of code, or fallback when unset
func (c *Config) StitchMethod(code string, fallback contracts.StitchMethod) (contracts.StitchMethod, error) {
	inst, ok := c.Instruments[code]
	if !ok || inst.StitchMethod == "" {
		return fallback, nil
	}
	return contracts.ParseStitchMethod(inst.StitchMethod)
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

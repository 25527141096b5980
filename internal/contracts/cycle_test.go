package contracts

import (
	"testing"
)

func TestParseCycle(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "HMUZ", want: "HMUZ"},
		{input: "zumh", want: "HMUZ"},
		{input: "FGHJKMNQUVXZ", want: "FGHJKMNQUVXZ"},
		{input: "", wantErr: true},
		{input: "HMA", wantErr: true},
		{input: "HH", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCycle(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCycle(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCycle(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseCycle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCycle_Shift(t *testing.T) {
	cycle := MustParseCycle("HMUZ")

	tests := []struct {
		name   string
		from   string
		offset int
		want   string
		ok     bool
	}{
		{name: "H back one wraps to previous Z", from: "20240300", offset: -1, want: "20231200", ok: true},
		{name: "M back one is same year H", from: "20240600", offset: -1, want: "20240300", ok: true},
		{name: "Z forward one wraps to next H", from: "20241200", offset: 1, want: "20250300", ok: true},
		{name: "full cycle back", from: "20240300", offset: -4, want: "20230300", ok: true},
		{name: "two cycles forward", from: "20240900", offset: 8, want: "20260900", ok: true},
		{name: "five back crosses two years", from: "20240300", offset: -5, want: "20221200", ok: true},
		{name: "month outside cycle", from: "20240400", offset: -1, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cycle.Shift(MustParseContractID(tt.from), tt.offset)
			if ok != tt.ok {
				t.Fatalf("Shift ok = %v, want %v", ok, tt.ok)
			}
			if ok && got.String() != tt.want {
				t.Errorf("Shift(%s, %d) = %s, want %s", tt.from, tt.offset, got, tt.want)
			}
		})
	}
}

func TestCycle_Next(t *testing.T) {
	cycle := MustParseCycle("HMUZ")

	if got := cycle.Next(MustParseContractID("20241200")); got.String() != "20250300" {
		t.Errorf("Next(Z) = %s", got)
	}
	if got := cycle.Next(MustParseContractID("20240400")); got.String() != "20240600" {
		t.Errorf("Next(J) = %s", got)
	}
}

package contracts

import (
	"encoding/json"
	"testing"
)

func TestParseContractID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    ContractID
		wantErr bool
	}{
		{name: "standard form", input: "202403" + "00", want: ContractID{Year: 2024, Month: 3}},
		{name: "vendor six char form", input: "202412", want: ContractID{Year: 2024, Month: 12}},
		{name: "bad day placeholder", input: "20240301", wantErr: true},
		{name: "month 13", input: "20241300", wantErr: true},
		{name: "month zero", input: "20240000", wantErr: true},
		{name: "year out of range", input: "18990100", wantErr: true},
		{name: "not numeric", input: "2024AB00", wantErr: true},
		{name: "too short", input: "2024", wantErr: true},
		{name: "sign in month", input: "2024+100", wantErr: true},
		{name: "sign in vendor form", input: "2024-1", wantErr: true},
		{name: "sign in year", input: "+0240300", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseContractID(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseContractID(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContractID(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseContractID(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestContractID_String(t *testing.T) {
	id := ContractID{Year: 2024, Month: 6}
	if got := id.String(); got != "20240600" {
		t.Errorf("String() = %q, want 20240600", got)
	}
	if len(id.String()) != 8 {
		t.Errorf("String() must be 8 chars")
	}
	if id.MonthCode() != 'M' {
		t.Errorf("MonthCode() = %c, want M", id.MonthCode())
	}
}

func TestContractID_AddMonths(t *testing.T) {
	id := ContractID{Year: 2024, Month: 11}

	if got := id.AddMonths(3); got != (ContractID{Year: 2025, Month: 2}) {
		t.Errorf("AddMonths(3) = %v", got)
	}
	if got := id.AddMonths(-11); got != (ContractID{Year: 2023, Month: 12}) {
		t.Errorf("AddMonths(-11) = %v", got)
	}
}

func TestContractID_Compare(t *testing.T) {
	a := MustParseContractID("20240300")
	b := MustParseContractID("20240600")
	c := MustParseContractID("20250300")

	if !a.Before(b) || !b.Before(c) || c.Before(a) {
		t.Error("chronological ordering broken")
	}
	if a.Compare(a) != 0 {
		t.Error("Compare with itself must be 0")
	}
}

func TestContractID_JSONKey(t *testing.T) {
	m := map[ContractID]float64{MustParseContractID("20240900"): 1.5}

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	if string(data) != `{"20240900":1.5}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var decoded map[ContractID]float64
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if decoded[ContractID{Year: 2024, Month: 9}] != 1.5 {
		t.Errorf("decoded map mismatch: %v", decoded)
	}
}

package contracts

import (
	"fmt"
	"strconv"
	"time"
)

// MonthCodes is the IMM month-code alphabet, positionally mapped to Jan..Dec.
// ⭐ SSOT: 월물 코드는 여기서만 정의 (외부 계약, 변경 불가)
const MonthCodes = "FGHJKMNQUVXZ"

const (
	minContractYear = 1900
	maxContractYear = 2200
)

// ContractID identifies a single futures contract by delivery year and month.
// Externally it is written as YYYYMM00.
type ContractID struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NewContractID validates year/month and returns a ContractID
func NewContractID(year, month int) (ContractID, error) {
	if year < minContractYear || year > maxContractYear {
		return ContractID{}, fmt.Errorf("contract year %d out of range [%d, %d]", year, minContractYear, maxContractYear)
	}
	if month < 1 || month > 12 {
		return ContractID{}, fmt.Errorf("contract month %d out of range [1, 12]", month)
	}
	return ContractID{Year: year, Month: month}, nil
}

// ParseContractID parses the YYYYMM00 form. YYYYMM (6 chars) is accepted for vendor feeds.
func ParseContractID(s string) (ContractID, error) {
	if len(s) != 8 && len(s) != 6 {
		return ContractID{}, fmt.Errorf("invalid contract id %q: want YYYYMM00", s)
	}
	if len(s) == 8 && s[6:] != "00" {
		return ContractID{}, fmt.Errorf("invalid contract id %q: day placeholder must be 00", s)
	}

	for i := 0; i < 6; i++ {
		if s[i] < '0' || s[i] > '9' {
			return ContractID{}, fmt.Errorf("invalid contract id %q: non-digit at position %d", s, i)
		}
	}

	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return ContractID{}, fmt.Errorf("invalid contract id %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[4:6])
	if err != nil {
		return ContractID{}, fmt.Errorf("invalid contract id %q: %w", s, err)
	}

	return NewContractID(year, month)
}

// MustParseContractID is ParseContractID for literals in tests and fixtures
func MustParseContractID(s string) ContractID {
	id, err := ParseContractID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// ContractFromCode builds a ContractID from a year and an IMM month code
func ContractFromCode(year int, code byte) (ContractID, error) {
	month, ok := MonthFromCode(code)
	if !ok {
		return ContractID{}, fmt.Errorf("invalid month code %q", code)
	}
	return NewContractID(year, month)
}

// MonthFromCode maps an IMM letter to a calendar month (1..12)
func MonthFromCode(code byte) (int, bool) {
	for i := 0; i < len(MonthCodes); i++ {
		if MonthCodes[i] == code {
			return i + 1, true
		}
	}
	return 0, false
}

// String formats the id as YYYYMM00
func (c ContractID) String() string {
	return fmt.Sprintf("%04d%02d00", c.Year, c.Month)
}

// MonthCode returns the IMM letter of the contract month
func (c ContractID) MonthCode() byte {
	return MonthCodes[c.Month-1]
}

// IsZero reports whether the id was never set
func (c ContractID) IsZero() bool {
	return c.Year == 0 && c.Month == 0
}

// FirstOfMonth returns the first calendar day of the contract month (UTC)
func (c ContractID) FirstOfMonth() time.Time {
	return time.Date(c.Year, time.Month(c.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Compare orders contracts chronologically (-1, 0, 1)
func (c ContractID) Compare(o ContractID) int {
	switch {
	case c.Year < o.Year:
		return -1
	case c.Year > o.Year:
		return 1
	case c.Month < o.Month:
		return -1
	case c.Month > o.Month:
		return 1
	default:
		return 0
	}
}

// Before reports whether c expires in an earlier month than o
func (c ContractID) Before(o ContractID) bool {
	return c.Compare(o) < 0
}

// AddMonths shifts the contract month, carrying into the year
func (c ContractID) AddMonths(n int) ContractID {
	total := c.Year*12 + (c.Month - 1) + n
	return ContractID{Year: total / 12, Month: total%12 + 1}
}

// InCycle reports whether the contract month belongs to the cycle
func (c ContractID) InCycle(cycle Cycle) bool {
	return cycle.Contains(c.MonthCode())
}

// MarshalText writes the YYYYMM00 form (used for JSON map keys and columns)
func (c ContractID) MarshalText() ([]byte, error) {
	if c.IsZero() {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses the YYYYMM00 form
func (c *ContractID) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*c = ContractID{}
		return nil
	}
	id, err := ParseContractID(string(b))
	if err != nil {
		return err
	}
	*c = id
	return nil
}

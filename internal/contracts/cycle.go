package contracts

import (
	"fmt"
	"strings"
)

// Cycle is an ordered set of IMM month codes (e.g. "HMUZ")
type Cycle struct {
	codes string
}

// ParseCycle validates a cycle string. Letters must come from MonthCodes,
// appear once each, and the cycle must be non-empty. Letters are stored in
// calendar order regardless of input order.
func ParseCycle(s string) (Cycle, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Cycle{}, fmt.Errorf("cycle is empty")
	}

	seen := make(map[byte]bool, len(s))
	for i := 0; i < len(s); i++ {
		if _, ok := MonthFromCode(s[i]); !ok {
			return Cycle{}, fmt.Errorf("cycle %q: invalid month code %q", s, s[i])
		}
		if seen[s[i]] {
			return Cycle{}, fmt.Errorf("cycle %q: duplicate month code %q", s, s[i])
		}
		seen[s[i]] = true
	}

	// 달력 순서로 정렬
	var b strings.Builder
	for i := 0; i < len(MonthCodes); i++ {
		if seen[MonthCodes[i]] {
			b.WriteByte(MonthCodes[i])
		}
	}
	return Cycle{codes: b.String()}, nil
}

// MustParseCycle panics on an invalid cycle
func MustParseCycle(s string) Cycle {
	c, err := ParseCycle(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Cycle) String() string { return c.codes }

// Len returns the number of months in the cycle
func (c Cycle) Len() int { return len(c.codes) }

// IsZero reports whether the cycle was never parsed
func (c Cycle) IsZero() bool { return c.codes == "" }

// Contains reports whether the month code belongs to the cycle
func (c Cycle) Contains(code byte) bool {
	return c.Position(code) >= 0
}

// Position returns the index of code inside the cycle, or -1
func (c Cycle) Position(code byte) int {
	return strings.IndexByte(c.codes, code)
}

// At returns the month code at position i
func (c Cycle) At(i int) byte {
	return c.codes[i]
}

// Shift moves a contract by n cycle positions, wrapping across year
// boundaries. ok is false when the contract month is not in the cycle.
func (c Cycle) Shift(id ContractID, n int) (ContractID, bool) {
	pos := c.Position(id.MonthCode())
	if pos < 0 || c.Len() == 0 {
		return ContractID{}, false
	}

	target := pos + n
	year := id.Year
	// floor division so that -1 → previous year, last position
	yearShift := target / c.Len()
	if target%c.Len() < 0 {
		yearShift--
	}
	target -= yearShift * c.Len()
	year += yearShift

	month, _ := MonthFromCode(c.At(target))
	return ContractID{Year: year, Month: month}, true
}

// Next returns the next contract in the cycle after id. id does not have to
// belong to the cycle.
func (c Cycle) Next(id ContractID) ContractID {
	for i := 1; i <= 12; i++ {
		cand := id.AddMonths(i)
		if cand.InCycle(c) {
			return cand
		}
	}
	return id.AddMonths(12)
}

// MarshalText implements encoding.TextMarshaler
func (c Cycle) MarshalText() ([]byte, error) {
	return []byte(c.codes), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Cycle) UnmarshalText(b []byte) error {
	parsed, err := ParseCycle(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

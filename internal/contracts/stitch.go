package contracts

import (
	"fmt"
	"strings"
)

// StitchMethod selects how roll gaps are removed
type StitchMethod string

const (
	// StitchPanama removes gaps additively
	StitchPanama StitchMethod = "panama"
	// StitchRatio removes gaps multiplicatively
	StitchRatio StitchMethod = "ratio"
	// StitchDifference is an alias of StitchPanama
	StitchDifference StitchMethod = "difference"
)

// ParseStitchMethod parses a method name (case-insensitive)
func ParseStitchMethod(s string) (StitchMethod, error) {
	switch m := StitchMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case StitchPanama, StitchRatio, StitchDifference:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStitchMethod, s)
	}
}

// Canonical folds aliases onto their base method
func (m StitchMethod) Canonical() StitchMethod {
	if m == StitchDifference {
		return StitchPanama
	}
	return m
}

package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Complexity is the user-facing detail level. It selects how aggressively
// phrases are merged and how many children a node may keep.
type Complexity int

const (
	Low Complexity = iota
	Medium
	High
)

var ErrUnknownComplexity = errors.New("unknown complexity")

// ParseComplexity accepts Low, Medium or High in any case. An empty string
// selects Medium.
func ParseComplexity(s string) (Complexity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, nil
	case "medium", "":
		return Medium, nil
	case "high":
		return High, nil
	}
	return Medium, fmt.Errorf("%w: %q", ErrUnknownComplexity, s)
}

func (c Complexity) String() string {
	switch c {
	case Low:
		return "Low"
	case High:
		return "High"
	default:
		return "Medium"
	}
}

// MergeThreshold is the cosine similarity a phrase must strictly exceed to
// be absorbed into an already kept phrase. Lower values merge more.
func (c Complexity) MergeThreshold() float64 {
	switch c {
	case Low:
		return 0.65
	case High:
		return 0.85
	default:
		return 0.75
	}
}

// MaxChildren is the fan-out ceiling applied by the pruner.
func (c Complexity) MaxChildren() int {
	switch c {
	case Low:
		return 3
	case High:
		return 8
	default:
		return 5
	}
}

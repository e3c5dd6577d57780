package progression

import (
	"fmt"
	"strings"
)

// Level is a difficulty tier within a module.
type Level string

const (
	LevelBasic    Level = "basic"
	LevelModerate Level = "moderate"
	LevelAdvanced Level = "advanced"
)

// DefaultLevelOrder returns the standard level sequence.
func DefaultLevelOrder() []Level {
	return []Level{LevelBasic, LevelModerate, LevelAdvanced}
}

// DisplayName returns a human-readable label for the level.
func (l Level) DisplayName() string {
	switch l {
	case LevelBasic:
		return "Basic"
	case LevelModerate:
		return "Moderate"
	case LevelAdvanced:
		return "Advanced"
	default:
		return string(l)
	}
}

// ParseLevel accepts a level id or display name in any case.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	switch l {
	case LevelBasic, LevelModerate, LevelAdvanced:
		return l, nil
	}
	return "", fmt.Errorf("unknown level %q: must be one of Basic, Moderate, Advanced", s)
}

// Next returns the level following l in order.
func Next(order []Level, l Level) (Level, bool) {
	i := indexOf(order, l)
	if i < 0 || i == len(order)-1 {
		return "", false
	}
	return order[i+1], true
}

func indexOf(order []Level, l Level) int {
	for i, o := range order {
		if o == l {
			return i
		}
	}
	return -1
}

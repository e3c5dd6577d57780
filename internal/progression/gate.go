package progression

import (
	"maps"
	"slices"

	"github.com/finscholars/finscholars/internal/quiz"
)

// LevelProgress maps each level to the best percentage recorded for it.
// Values are never modified in place; RecordAttempt returns a new version.
type LevelProgress struct {
	scores map[Level]float64
}

// NewLevelProgress builds a progress value from existing scores.
func NewLevelProgress(scores map[Level]float64) LevelProgress {
	return LevelProgress{scores: maps.Clone(scores)}
}

// Score returns the best recorded percentage for a level.
func (p LevelProgress) Score(l Level) (float64, bool) {
	s, ok := p.scores[l]
	return s, ok
}

// Levels returns the levels that have a recorded score, sorted by id.
func (p LevelProgress) Levels() []Level {
	return slices.Sorted(maps.Keys(p.scores))
}

// Scores returns a copy of the score map.
func (p LevelProgress) Scores() map[Level]float64 {
	return maps.Clone(p.scores)
}

// Len returns the number of levels with a recorded score.
func (p LevelProgress) Len() int {
	return len(p.scores)
}

// RecordAttempt returns progress with the level's score raised to pct if it
// is higher than the stored value. The input is left untouched.
func RecordAttempt(p LevelProgress, level Level, pct float64) LevelProgress {
	next := make(map[Level]float64, len(p.scores)+1)
	maps.Copy(next, p.scores)
	if old, ok := next[level]; !ok || pct > old {
		next[level] = pct
	}
	return LevelProgress{scores: next}
}

// IsLevelUnlocked reports whether target is accessible. The first level is
// always open; every other level needs a passing score on its predecessor.
func IsLevelUnlocked(order []Level, p LevelProgress, target Level) bool {
	i := indexOf(order, target)
	switch {
	case i < 0:
		return false
	case i == 0:
		return true
	}
	prev, _ := p.Score(order[i-1])
	return quiz.IsPassing(prev)
}

// IsModuleCompleted reports whether the final level has a passing score.
func IsModuleCompleted(order []Level, p LevelProgress) bool {
	if len(order) == 0 {
		return false
	}
	last, _ := p.Score(order[len(order)-1])
	return quiz.IsPassing(last)
}

// LevelStatus is the per-level state shown on module pages.
type LevelStatus string

const (
	StatusLocked    LevelStatus = "locked"
	StatusAvailable LevelStatus = "available"
	StatusPassed    LevelStatus = "passed"
)

// Icon returns the display icon for the status.
func (s LevelStatus) Icon() string {
	switch s {
	case StatusPassed:
		return "✓"
	case StatusAvailable:
		return "▸"
	default:
		return "🔒"
	}
}

// LevelView is one row of a module's level overview.
type LevelView struct {
	Level  Level
	Status LevelStatus
	Score  float64
	Scored bool
}

// Statuses computes the view of every level in order.
func Statuses(order []Level, p LevelProgress) []LevelView {
	views := make([]LevelView, len(order))
	for i, l := range order {
		score, scored := p.Score(l)
		status := StatusLocked
		switch {
		case scored && quiz.IsPassing(score):
			status = StatusPassed
		case IsLevelUnlocked(order, p, l):
			status = StatusAvailable
		}
		views[i] = LevelView{Level: l, Status: status, Score: score, Scored: scored}
	}
	return views
}

package progression

import (
	"sync"
)

// Transition describes the effect of recording one finished attempt.
type Transition struct {
	UserID   string
	ModuleID string
	Level    Level
	From     float64 // best score before the attempt (0 if none)
	To       float64 // best score after the attempt
	Improved bool

	// Unlocked is the level that became accessible because of this attempt.
	Unlocked *Level

	// ModuleCompleted is true when the attempt made the module complete.
	ModuleCompleted bool
}

type trackerKey struct {
	userID   string
	moduleID string
}

// Tracker holds the current LevelProgress version for every user and
// module. Record swaps in a new version, so a reader holding a snapshot
// never sees a partial update.
type Tracker struct {
	mu       sync.RWMutex
	order    []Level
	progress map[trackerKey]LevelProgress
}

// NewTracker creates an empty tracker using the given level order.
func NewTracker(order []Level) *Tracker {
	return &Tracker{
		order:    order,
		progress: make(map[trackerKey]LevelProgress),
	}
}

// Order returns the level order the tracker gates on.
func (t *Tracker) Order() []Level {
	return t.order
}

// Snapshot returns the current progress for a user's module.
func (t *Tracker) Snapshot(userID, moduleID string) LevelProgress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.progress[trackerKey{userID, moduleID}]
}

// Load replaces the stored progress, typically with data from the store.
func (t *Tracker) Load(userID, moduleID string, p LevelProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress[trackerKey{userID, moduleID}] = p
}

// Reset forgets all progress for a user.
func (t *Tracker) Reset(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for k := range t.progress {
		if k.userID == userID {
			delete(t.progress, k)
		}
	}
}

// Merge folds stored scores into the tracked progress, keeping the best
// score for every level.
func (t *Tracker) Merge(userID, moduleID string, p LevelProgress) LevelProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{userID, moduleID}
	merged := t.progress[key]
	for l, pct := range p.scores {
		merged = RecordAttempt(merged, l, pct)
	}
	t.progress[key] = merged
	return merged
}

// Record applies a finished attempt using the tracker's level order and
// reports what changed.
func (t *Tracker) Record(userID, moduleID string, level Level, pct float64) Transition {
	return t.RecordIn(t.order, userID, moduleID, level, pct)
}

// RecordIn is Record for a module with its own level order.
func (t *Tracker) RecordIn(order []Level, userID, moduleID string, level Level, pct float64) Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := trackerKey{userID, moduleID}
	before := t.progress[key]
	after := RecordAttempt(before, level, pct)
	t.progress[key] = after

	from, _ := before.Score(level)
	to, _ := after.Score(level)
	tr := Transition{
		UserID:   userID,
		ModuleID: moduleID,
		Level:    level,
		From:     from,
		To:       to,
		Improved: to > from || before.Len() < after.Len(),
	}

	if next, ok := Next(order, level); ok {
		if !IsLevelUnlocked(order, before, next) && IsLevelUnlocked(order, after, next) {
			tr.Unlocked = &next
		}
	}
	tr.ModuleCompleted = !IsModuleCompleted(order, before) && IsModuleCompleted(order, after)
	return tr
}

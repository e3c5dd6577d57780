package progression

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstLevelAlwaysUnlocked(t *testing.T) {
	order := DefaultLevelOrder()
	progresses := []LevelProgress{
		{},
		NewLevelProgress(map[Level]float64{LevelBasic: 0}),
		NewLevelProgress(map[Level]float64{LevelBasic: 10, LevelModerate: 100}),
	}
	for _, p := range progresses {
		assert.True(t, IsLevelUnlocked(order, p, LevelBasic))
	}
}

func TestIsLevelUnlocked(t *testing.T) {
	order := DefaultLevelOrder()
	tests := []struct {
		name   string
		scores map[Level]float64
		target Level
		want   bool
	}{
		{"no progress moderate", nil, LevelModerate, false},
		{"basic passed", map[Level]float64{LevelBasic: 85}, LevelModerate, true},
		{"basic exactly threshold", map[Level]float64{LevelBasic: 80}, LevelModerate, true},
		{"basic below threshold", map[Level]float64{LevelBasic: 79.9}, LevelModerate, false},
		{"advanced needs moderate", map[Level]float64{LevelBasic: 100}, LevelAdvanced, false},
		// Only the immediate predecessor counts.
		{"advanced with moderate only", map[Level]float64{LevelModerate: 90}, LevelAdvanced, true},
		{"unknown level", map[Level]float64{LevelBasic: 100}, Level("expert"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsLevelUnlocked(order, NewLevelProgress(tt.scores), tt.target)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordAttemptMonotonic(t *testing.T) {
	pairs := [][2]float64{{80, 40}, {100, 0}, {50, 49.5}, {60, 60}}
	for _, pr := range pairs {
		p := RecordAttempt(LevelProgress{}, LevelBasic, pr[0])
		p = RecordAttempt(p, LevelBasic, pr[1])
		got, ok := p.Score(LevelBasic)
		require.True(t, ok)
		assert.Equal(t, pr[0], got)
	}

	p := RecordAttempt(LevelProgress{}, LevelBasic, 40)
	p = RecordAttempt(p, LevelBasic, 90)
	got, _ := p.Score(LevelBasic)
	assert.Equal(t, 90.0, got)
}

func TestRecordAttemptCopyOnWrite(t *testing.T) {
	original := NewLevelProgress(map[Level]float64{LevelBasic: 50})
	updated := RecordAttempt(original, LevelBasic, 90)

	before, _ := original.Score(LevelBasic)
	after, _ := updated.Score(LevelBasic)
	assert.Equal(t, 50.0, before)
	assert.Equal(t, 90.0, after)

	_, ok := original.Score(LevelModerate)
	assert.False(t, ok)
}

func TestRecordZeroScoreIsStored(t *testing.T) {
	p := RecordAttempt(LevelProgress{}, LevelModerate, 0)
	score, ok := p.Score(LevelModerate)
	assert.True(t, ok)
	assert.Equal(t, 0.0, score)
}

func TestIsModuleCompleted(t *testing.T) {
	order := DefaultLevelOrder()
	assert.False(t, IsModuleCompleted(order, LevelProgress{}))
	assert.False(t, IsModuleCompleted(order, NewLevelProgress(map[Level]float64{LevelBasic: 100, LevelModerate: 100})))
	assert.True(t, IsModuleCompleted(order, NewLevelProgress(map[Level]float64{LevelAdvanced: 80})))
	assert.False(t, IsModuleCompleted(nil, LevelProgress{}))
}

func TestStatuses(t *testing.T) {
	p := NewLevelProgress(map[Level]float64{LevelBasic: 85, LevelModerate: 60})
	views := Statuses(DefaultLevelOrder(), p)
	require.Len(t, views, 3)

	assert.Equal(t, StatusPassed, views[0].Status)
	assert.Equal(t, StatusAvailable, views[1].Status)
	assert.True(t, views[1].Scored)
	assert.Equal(t, StatusLocked, views[2].Status)
	assert.False(t, views[2].Scored)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"Basic": LevelBasic, "moderate": LevelModerate, " ADVANCED ": LevelAdvanced} {
		got, err := ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseLevel("expert")
	assert.Error(t, err)
}

func TestNextLevel(t *testing.T) {
	order := DefaultLevelOrder()
	next, ok := Next(order, LevelBasic)
	assert.True(t, ok)
	assert.Equal(t, LevelModerate, next)

	_, ok = Next(order, LevelAdvanced)
	assert.False(t, ok)
}

func TestTrackerTransitions(t *testing.T) {
	tr := NewTracker(DefaultLevelOrder())

	first := tr.Record("u1", "investment-basics", LevelBasic, 60)
	assert.True(t, first.Improved)
	assert.Nil(t, first.Unlocked)

	second := tr.Record("u1", "investment-basics", LevelBasic, 80)
	require.NotNil(t, second.Unlocked)
	assert.Equal(t, LevelModerate, *second.Unlocked)
	assert.Equal(t, 60.0, second.From)
	assert.Equal(t, 80.0, second.To)

	lower := tr.Record("u1", "investment-basics", LevelBasic, 20)
	assert.False(t, lower.Improved)
	assert.Nil(t, lower.Unlocked)
	assert.Equal(t, 80.0, lower.To)

	tr.Record("u1", "investment-basics", LevelModerate, 100)
	done := tr.Record("u1", "investment-basics", LevelAdvanced, 90)
	assert.True(t, done.ModuleCompleted)
	assert.Nil(t, done.Unlocked)

	again := tr.Record("u1", "investment-basics", LevelAdvanced, 100)
	assert.False(t, again.ModuleCompleted, "completion is reported once")

	other := tr.Snapshot("u2", "investment-basics")
	assert.Equal(t, 0, other.Len())

	tr.Reset("u1")
	assert.Equal(t, 0, tr.Snapshot("u1", "investment-basics").Len())
}

func TestTrackerConcurrentReaders(t *testing.T) {
	tr := NewTracker(DefaultLevelOrder())
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func(pct float64) {
			defer wg.Done()
			tr.Record("u", "m", LevelBasic, pct)
		}(float64(i * 2))
		go func() {
			defer wg.Done()
			snap := tr.Snapshot("u", "m")
			if s, ok := snap.Score(LevelBasic); ok {
				assert.GreaterOrEqual(t, s, 0.0)
			}
		}()
	}
	wg.Wait()

	best, _ := tr.Snapshot("u", "m").Score(LevelBasic)
	assert.Equal(t, 98.0, best)
}

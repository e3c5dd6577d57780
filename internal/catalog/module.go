package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/finscholars/finscholars/internal/progression"
	"github.com/finscholars/finscholars/internal/quiz"
)

// ErrNotFound is returned when a module id is not in the catalog.
var ErrNotFound = errors.New("module not found")

// Section is one block of level reading material. Content is HTML.
type Section struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// LevelContent is the reading material and quiz for one level of a module.
type LevelContent struct {
	Level    progression.Level `json:"level"`
	Sections []Section         `json:"sections,omitempty"`
	Quiz     *quiz.Quiz        `json:"quiz,omitempty"`
}

// Module is a catalog entry. Modules handed out by a Registry are shared
// and must be treated as read-only.
type Module struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Difficulty  string         `json:"difficulty,omitempty"`
	Category    string         `json:"category,omitempty"`
	Duration    string         `json:"duration,omitempty"`
	Levels      []LevelContent `json:"levels,omitempty"`
}

// Summary is the dashboard view of a module.
type Summary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Category    string `json:"category,omitempty"`
	Duration    string `json:"duration,omitempty"`
	LevelCount  int    `json:"level_count"`
}

// Summary returns the dashboard view of the module.
func (m *Module) Summary() Summary {
	return Summary{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		Difficulty:  m.Difficulty,
		Category:    m.Category,
		Duration:    m.Duration,
		LevelCount:  len(m.LevelOrder()),
	}
}

// LevelOrder returns the module's levels in sequence. Modules that do not
// list levels use the default Basic, Moderate, Advanced order.
func (m *Module) LevelOrder() []progression.Level {
	if len(m.Levels) == 0 {
		return progression.DefaultLevelOrder()
	}
	order := make([]progression.Level, len(m.Levels))
	for i, l := range m.Levels {
		order[i] = l.Level
	}
	return order
}

// Level returns the content for one level.
func (m *Module) Level(l progression.Level) (*LevelContent, bool) {
	for i := range m.Levels {
		if m.Levels[i].Level == l {
			return &m.Levels[i], true
		}
	}
	return nil, false
}

// HasLevel reports whether l is part of the module's level order.
func (m *Module) HasLevel(l progression.Level) bool {
	for _, o := range m.LevelOrder() {
		if o == l {
			return true
		}
	}
	return false
}

// QuizFor returns the quiz for a module level, falling back to the sample
// quiz when the level has none.
func QuizFor(m *Module, l progression.Level) *quiz.Quiz {
	if lc, ok := m.Level(l); ok && lc.Quiz != nil {
		return lc.Quiz
	}
	return FallbackQuiz(m.ID, l)
}

// FallbackQuiz is the placeholder quiz served for levels without quiz data.
func FallbackQuiz(moduleID string, l progression.Level) *quiz.Quiz {
	return &quiz.Quiz{
		ID:       fmt.Sprintf("%s-%s-sample", moduleID, l),
		ModuleID: moduleID,
		Level:    string(l),
		Title:    fmt.Sprintf("%s - %s Level Quiz", moduleID, l.DisplayName()),
		Questions: []quiz.Question{
			quiz.NewMultipleChoice(
				"sample-1",
				"Sample question (No quiz data available for this module/level)",
				[]string{"Option A", "Option B", "Option C", "Option D"},
				0,
				"This is a sample explanation.",
			),
		},
	}
}

// Registry supplies read-only module definitions.
type Registry interface {
	// GetModuleByID returns the module or ErrNotFound.
	GetModuleByID(ctx context.Context, id string) (*Module, error)

	// ListModules returns module summaries in catalog order.
	ListModules(ctx context.Context) ([]Summary, error)
}

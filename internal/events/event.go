// Package events publishes learner progress events to the message broker.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Type names an event. It doubles as the routing key on the topic exchange.
type Type string

const (
	AttemptCompleted Type = "attempt.completed"
	LevelUnlocked    Type = "level.unlocked"
	ModuleCompleted  Type = "module.completed"
	BadgeAwarded     Type = "badge.awarded"
)

// Event is the message body published for every type.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	UserID     string         `json:"user_id"`
	ModuleID   string         `json:"module_id,omitempty"`
	Level      string         `json:"level,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New creates an event with a fresh id.
func New(t Type, userID string, data map[string]any) *Event {
	return &Event{
		ID:         uuid.New().String(),
		Type:       t,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// ForModule sets the module and level the event is about.
func (e *Event) ForModule(moduleID, level string) *Event {
	e.ModuleID = moduleID
	e.Level = level
	return e
}

// NewAttemptCompleted reports a finalized attempt.
func NewAttemptCompleted(userID, attemptID, moduleID, level string, percentage float64, passed bool) *Event {
	return New(AttemptCompleted, userID, map[string]any{
		"attempt_id": attemptID,
		"percentage": percentage,
		"passed":     passed,
	}).ForModule(moduleID, level)
}

// NewLevelUnlocked reports that passing a level opened the next one.
func NewLevelUnlocked(userID, moduleID, level string) *Event {
	return New(LevelUnlocked, userID, nil).ForModule(moduleID, level)
}

// NewModuleCompleted reports that the final level of a module was passed.
func NewModuleCompleted(userID, moduleID string) *Event {
	return New(ModuleCompleted, userID, nil).ForModule(moduleID, "")
}

// NewBadgeAwarded reports a newly earned badge.
func NewBadgeAwarded(userID, badge string) *Event {
	return New(BadgeAwarded, userID, map[string]any{"badge": badge})
}

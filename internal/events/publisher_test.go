package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledPublisherDropsEvents(t *testing.T) {
	p, err := NewAMQPPublisher("", "")
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.NoError(t, p.Publish(context.Background(), NewModuleCompleted("u1", "m1")))
	assert.NoError(t, p.Close())
}

func TestEventConstructors(t *testing.T) {
	e := NewAttemptCompleted("u1", "a1", "investment-basics", "basic", 80, true)
	assert.Equal(t, AttemptCompleted, e.Type)
	assert.Equal(t, "investment-basics", e.ModuleID)
	assert.Equal(t, "basic", e.Level)
	assert.NotEmpty(t, e.ID)

	other := NewAttemptCompleted("u1", "a2", "investment-basics", "basic", 80, true)
	assert.NotEqual(t, e.ID, other.ID)

	body, err := json.Marshal(e)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "attempt.completed", decoded["type"])
	assert.Equal(t, true, decoded["data"].(map[string]any)["passed"])
}

func TestPublishAllContinuesAfterFailure(t *testing.T) {
	m := NewMockPublisher()
	err := PublishAll(context.Background(), m,
		NewBadgeAwarded("u1", "first-steps"),
		NewModuleCompleted("u1", "m1"),
	)
	require.NoError(t, err)
	assert.Len(t, m.Events(), 2)
	assert.Len(t, m.OfType(BadgeAwarded), 1)

	m.Err = errors.New("broker down")
	err = PublishAll(context.Background(), m, NewModuleCompleted("u1", "m2"))
	assert.ErrorContains(t, err, "broker down")
	assert.Len(t, m.Events(), 2)
}

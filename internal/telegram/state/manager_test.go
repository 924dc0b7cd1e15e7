package state

import (
	"testing"
	"time"

	"github.com/futig/template-chat/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	m := NewManager(time.Hour, time.Minute)

	_, ok := m.Get(7)
	assert.False(t, ok)
	assert.False(t, m.SetRefinement(7, entity.RefinementViews))
	assert.Equal(t, entity.RefinementNone, m.TakeRefinement(7))

	m.Set(7, Session{ConversationID: "c1"})
	require.True(t, m.SetRefinement(7, entity.RefinementViews))

	s, ok := m.Get(7)
	require.True(t, ok)
	assert.Equal(t, "c1", s.ConversationID)
	assert.Equal(t, entity.RefinementViews, s.Refinement)

	assert.Equal(t, entity.RefinementViews, m.TakeRefinement(7))
	assert.Equal(t, entity.RefinementNone, m.TakeRefinement(7), "refinement applies to one message")

	s, _ = m.Get(7)
	assert.Equal(t, "c1", s.ConversationID)

	m.Delete(7)
	_, ok = m.Get(7)
	assert.False(t, ok)
}

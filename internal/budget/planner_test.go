package budget

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/fathom-chat/contextd/internal/turn"
)

func windowOf(depth, images int, msgLen int) []turn.Turn {
	turns := make([]turn.Turn, depth)
	for i := range turns {
		turns[i] = turn.Turn{
			ID:        uuid.New(),
			Role:      turn.RoleUser,
			Content:   strings.Repeat("x", msgLen),
			Timestamp: time.Now(),
		}
	}
	for i := 0; i < images && i < depth; i++ {
		turns[i].Attachments = []turn.ImageRef{{Hash: "h", OriginalSize: 100}}
	}
	return turns
}

func TestProfileOf(t *testing.T) {
	p := ProfileOf(windowOf(4, 2, 50))
	assert.Equal(t, 4, p.Depth)
	assert.Equal(t, 2, p.ImageCount)
	assert.InDelta(t, 50.0, p.MeanMessageLen, 0.01)

	empty := ProfileOf(nil)
	assert.Equal(t, 0, empty.Depth)
	assert.Zero(t, empty.MeanMessageLen)
}

func TestPlan_MonotonicInDepth(t *testing.T) {
	p := DefaultPlanner()
	shallow := p.Plan(ProfileOf(windowOf(2, 0, 50)))
	deep := p.Plan(ProfileOf(windowOf(20, 0, 50)))
	assert.Greater(t, deep, shallow)
}

func TestPlan_ImagesWidenBudget(t *testing.T) {
	p := DefaultPlanner()
	plain := p.Plan(ProfileOf(windowOf(5, 0, 50)))
	withImages := p.Plan(ProfileOf(windowOf(5, 3, 50)))
	assert.Greater(t, withImages, plain)
}

func TestPlan_VerboseConversationsWidenBudget(t *testing.T) {
	p := DefaultPlanner()
	terse := p.Plan(ProfileOf(windowOf(10, 0, 20)))
	verbose := p.Plan(ProfileOf(windowOf(10, 0, 400)))
	assert.Greater(t, verbose, terse)
}

func TestPlan_CappedAtMax(t *testing.T) {
	p := Planner{Base: 1000, Max: 1500, PerTurn: 100, PerImage: 100}
	got := p.Plan(ProfileOf(windowOf(50, 20, 500)))
	assert.Equal(t, 1500, got)
}

func TestPlan_ZeroValuePlannerUsesDefaults(t *testing.T) {
	var p Planner
	got := p.Plan(Profile{})
	assert.Equal(t, DefaultPlanner().Base, got)
}

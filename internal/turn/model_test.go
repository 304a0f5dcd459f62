package turn

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSortChronological_StableOnEqualTimestamps(t *testing.T) {
	ts := time.Now()
	a := Turn{ID: uuid.New(), Content: "first", Timestamp: ts}
	b := Turn{ID: uuid.New(), Content: "second", Timestamp: ts}
	c := Turn{ID: uuid.New(), Content: "older", Timestamp: ts.Add(-time.Hour)}

	turns := []Turn{a, b, c}
	SortChronological(turns)

	assert.Equal(t, "older", turns[0].Content)
	assert.Equal(t, "first", turns[1].Content)
	assert.Equal(t, "second", turns[2].Content)
}

func TestIDs_PreservesOrder(t *testing.T) {
	a := Turn{ID: uuid.New()}
	b := Turn{ID: uuid.New()}

	ids := IDs([]Turn{a, b})
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, ids)
}

func TestHasAttachments(t *testing.T) {
	assert.False(t, Turn{}.HasAttachments())
	assert.True(t, Turn{Attachments: []ImageRef{{Hash: "h"}}}.HasAttachments())
}

// ABOUTME: Tests for the artifact store and panel projection
// ABOUTME: Covers the FIFO cap, overwrite semantics, clearing, and word counting

package artifact

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_AddNewestFirst(t *testing.T) {
	s := NewStore()
	s.Add(Artifact{ID: "a", Type: "draft", Content: "one"})
	s.Add(Artifact{ID: "b", Type: "outline", Content: "two"})

	recent := s.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "b", recent[0].ID)
	assert.Equal(t, "a", recent[1].ID)
}

func TestStore_CapEvictsOldest(t *testing.T) {
	s := NewStore()
	for i := 0; i < 11; i++ {
		s.Add(Artifact{ID: fmt.Sprintf("a%d", i), Type: "draft"})
	}

	recent := s.Recent()
	require.Len(t, recent, 10)
	// Newest at the front, the very first insert evicted.
	assert.Equal(t, "a10", recent[0].ID)
	assert.Equal(t, "a1", recent[9].ID)
	for _, a := range recent {
		assert.NotEqual(t, "a0", a.ID)
	}
}

func TestStore_PanelOverwrite(t *testing.T) {
	s := NewStore()

	_, ok := s.Panel()
	assert.False(t, ok)

	s.SetPanel(Panel{Title: "Draft", Content: "first", WordCount: 1})
	s.SetPanel(Panel{Title: "Outline", Content: "second version", WordCount: 2})

	p, ok := s.Panel()
	require.True(t, ok)
	assert.Equal(t, "Outline", p.Title)
	assert.Equal(t, "second version", p.Content)
}

func TestStore_Clear(t *testing.T) {
	s := NewStore()
	s.Add(Artifact{ID: "a", Type: "draft", Content: "x"})
	s.SetPanel(Panel{Title: "Draft", Content: "x", WordCount: 1})

	s.Clear()

	assert.Empty(t, s.Recent())
	_, ok := s.Panel()
	assert.False(t, ok)
}

func TestProject_PanelTypes(t *testing.T) {
	p, ok := Project(Artifact{Type: "draft", Content: "Once upon a time..."})
	require.True(t, ok)
	assert.Equal(t, "Draft", p.Title)
	assert.Equal(t, "Once upon a time...", p.Content)
	// strings.Fields on the literal: "Once", "upon", "a", "time..."
	assert.Equal(t, 4, p.WordCount)

	p, ok = Project(Artifact{Type: "outline", Content: "  Act I \n Act II  "})
	require.True(t, ok)
	assert.Equal(t, "Outline", p.Title)
	assert.Equal(t, 4, p.WordCount)
}

func TestProject_NonPanelTypes(t *testing.T) {
	_, ok := Project(Artifact{Type: "note", Content: "whatever"})
	assert.False(t, ok)

	_, ok = Project(Artifact{Type: "", Content: "whatever"})
	assert.False(t, ok)
}

func TestProject_EmptyContentCountsZero(t *testing.T) {
	p, ok := Project(Artifact{Type: "draft", Content: "   "})
	require.True(t, ok)
	assert.Equal(t, 0, p.WordCount)
}

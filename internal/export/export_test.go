// ABOUTME: Tests for HTML transcript rendering

package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fablesmith/fable-client/internal/persist"
)

func TestRenderTranscript(t *testing.T) {
	s := persist.Session{ID: "s1", Title: "Dragons & Knights", Agent: "gm"}
	messages := []persist.Message{
		{ID: "m1", Role: persist.RoleUser, Content: "Tell me a <story>"},
		{ID: "m2", Role: persist.RoleAssistant, Agent: "gm", Content: "**Once** upon a time"},
	}

	out, err := RenderTranscript(s, messages)
	require.NoError(t, err)
	html := string(out)

	// Title is escaped.
	assert.Contains(t, html, "Dragons &amp; Knights")
	// User content is escaped, not interpreted.
	assert.Contains(t, html, "Tell me a &lt;story&gt;")
	// Assistant markdown is converted.
	assert.Contains(t, html, "<strong>Once</strong> upon a time")
	// Agent label comes from the catalog.
	assert.Contains(t, html, "Game Master")
}

func TestRenderTranscript_EmptyTimeline(t *testing.T) {
	out, err := RenderTranscript(persist.Session{Title: "Empty"}, nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>Empty</h1>")
}

// ABOUTME: Tests for the SSE channel client against httptest servers
// ABOUTME: Verifies addressing, event decoding order, terminal signals, and cancellation

package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sseHandler writes the given pre-formatted SSE events and returns.
func sseHandler(t *testing.T, events ...string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)
		for _, ev := range events {
			fmt.Fprint(w, ev)
			flusher.Flush()
		}
	}
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for channel to close")
		}
	}
}

func TestClient_OpenAddressesChannel(t *testing.T) {
	var gotPath, gotMessage, gotRole, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMessage = r.URL.Query().Get("message")
		gotRole = r.URL.Query().Get("role")
		gotUser = r.URL.Query().Get("user_id")
		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "sess-42", "hello there", "writer")
	require.NoError(t, err)
	collect(t, events)

	assert.Equal(t, "/stream/sess-42", gotPath)
	assert.Equal(t, "hello there", gotMessage)
	assert.Equal(t, "writer", gotRole)
	assert.Equal(t, "player-1", gotUser)
}

func TestClient_DecodesEventsInOrder(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: system\ndata: {\"status\": \"connected\"}\n\n",
		"event: message\ndata: {\"text_chunk\": \"Once \"}\n\n",
		"event: message\ndata: {\"text_chunk\": \"upon\"}\n\n",
		"event: artifact_update\ndata: {\"type\": \"draft\", \"content\": \"Chapter one\"}\n\n",
		"event: tool_start\ndata: {\"tool_name\": \"roll_dice\"}\n\n",
	))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "s1", "go", "gm")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 5) // system dropped, close appended

	assert.Equal(t, KindTextChunk, got[0].Kind)
	assert.Equal(t, "Once ", got[0].Text)
	assert.Equal(t, KindTextChunk, got[1].Kind)
	assert.Equal(t, "upon", got[1].Text)
	assert.Equal(t, KindArtifactUpdate, got[2].Kind)
	assert.Equal(t, "draft", got[2].ArtifactType)
	assert.Equal(t, KindToolStart, got[3].Kind)
	assert.Equal(t, "roll_dice", got[3].Tool)
	assert.Equal(t, KindStreamClosed, got[4].Kind)
}

func TestClient_ErrorEventIsTerminal(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: message\ndata: {\"text_chunk\": \"partial\"}\n\n",
		"event: error\ndata: {}\n\n",
		"event: message\ndata: {\"text_chunk\": \"never seen\"}\n\n",
	))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "s1", "go", "gm")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, KindTextChunk, got[0].Kind)
	assert.Equal(t, KindErrorSignal, got[1].Kind)
}

func TestClient_DatalessErrorEventIsTerminal(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: message\ndata: {\"text_chunk\": \"partial\"}\n\n",
		"event: error\n\n",
		"event: message\ndata: {\"text_chunk\": \"never seen\"}\n\n",
	))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "s1", "go", "gm")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, KindTextChunk, got[0].Kind)
	assert.Equal(t, KindErrorSignal, got[1].Kind)
}

func TestClient_MalformedPayloadDropped(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: message\ndata: {broken json\n\n",
		"event: message\ndata: {\"text_chunk\": \"still here\"}\n\n",
	))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "s1", "go", "gm")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	assert.Equal(t, "still here", got[0].Text)
	assert.Equal(t, KindStreamClosed, got[1].Kind)
}

func TestClient_DataLineSpacing(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t,
		"event: message\ndata:{\"text_chunk\": \"no space\"}\n\n",
		"event: message\ndata:   {\"text_chunk\": \"extra spaces\"}\n\n",
	))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(context.Background(), "s1", "go", "gm")
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 3)
	assert.Equal(t, "no space", got[0].Text)
	assert.Equal(t, "extra spaces", got[1].Text)
	assert.Equal(t, KindStreamClosed, got[2].Kind)
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "player-1", nil)
	_, err := c.Open(context.Background(), "s1", "go", "gm")
	assert.Error(t, err)
}

func TestClient_ContextCancelClosesChannel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-release // hold the stream open
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	c := NewClient(srv.URL, "player-1", nil)
	events, err := c.Open(ctx, "s1", "go", "gm")
	require.NoError(t, err)

	cancel()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return // channel closed, reader shut down
			}
		case <-timeout:
			t.Fatal("channel did not close after cancel")
		}
	}
}

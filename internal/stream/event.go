// ABOUTME: Typed tagged-union decoding of server-push events
// ABOUTME: Closed event vocabulary; unknown names and malformed payloads are dropped

package stream

import (
	"encoding/json"
	"fmt"
)

// Kind identifies one variant of the closed event set a channel can emit.
type Kind int

const (
	// KindTextChunk carries a fragment of assistant text.
	KindTextChunk Kind = iota
	// KindArtifactUpdate carries a structured side-channel payload.
	KindArtifactUpdate
	// KindToolStart announces a tool invocation; observability only.
	KindToolStart
	// KindErrorSignal is a transport-level error event; terminal.
	KindErrorSignal
	// KindStreamClosed marks the end of the channel; terminal. The protocol
	// has no explicit end event, so this is synthesized when the transport
	// closes.
	KindStreamClosed
)

// String returns the kind name for logs.
func (k Kind) String() string {
	switch k {
	case KindTextChunk:
		return "text_chunk"
	case KindArtifactUpdate:
		return "artifact_update"
	case KindToolStart:
		return "tool_start"
	case KindErrorSignal:
		return "error"
	case KindStreamClosed:
		return "stream_closed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is one decoded channel event. Which fields are set depends on Kind:
// Text for KindTextChunk, ArtifactType/ArtifactContent for
// KindArtifactUpdate, Tool for KindToolStart. Terminal kinds carry no data.
type Event struct {
	Kind            Kind
	Text            string
	ArtifactType    string
	ArtifactContent string
	Tool            string
}

// Wire payload shapes, one per named event the server defines.
type textChunkPayload struct {
	TextChunk string `json:"text_chunk"`
}

type artifactPayload struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type toolStartPayload struct {
	ToolName string `json:"tool_name"`
}

// Decode parses a named wire event into an Event. The boolean is false for
// event names outside the closed set (the server's "system" hello, future
// additions); those must be ignored without failing the stream. A recognized
// name with a malformed payload returns an error so the caller can log and
// drop it.
func Decode(name string, data []byte) (Event, bool, error) {
	switch name {
	case "message":
		var p textChunkPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, true, fmt.Errorf("decoding message payload: %w", err)
		}
		return Event{Kind: KindTextChunk, Text: p.TextChunk}, true, nil

	case "artifact_update":
		var p artifactPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, true, fmt.Errorf("decoding artifact_update payload: %w", err)
		}
		return Event{Kind: KindArtifactUpdate, ArtifactType: p.Type, ArtifactContent: p.Content}, true, nil

	case "tool_start":
		var p toolStartPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return Event{}, true, fmt.Errorf("decoding tool_start payload: %w", err)
		}
		return Event{Kind: KindToolStart, Tool: p.ToolName}, true, nil

	case "error":
		// Payload is optional and ignored.
		return Event{Kind: KindErrorSignal}, true, nil

	default:
		return Event{}, false, nil
	}
}

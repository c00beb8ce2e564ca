// ABOUTME: SSE channel client for the /stream endpoint
// ABOUTME: One channel per outgoing turn; decode-only, the client never writes after opening

package stream

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client opens server-push channels against the backend. One channel serves
// exactly one outgoing turn; channels are never reused.
type Client struct {
	baseURL string
	userID  string
	httpc   *http.Client
	logger  *slog.Logger
}

// NewClient creates a channel client for the given base URL and caller
// identity. The http.Client carries no overall timeout; per-turn deadlines
// come from the caller's context.
func NewClient(baseURL, userID string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		userID:  userID,
		httpc:   &http.Client{},
		logger:  logger.With("component", "stream"),
	}
}

// Open starts one server-push channel for (session, message, role) and
// returns the decoded event channel. The channel always ends with exactly one
// terminal event (KindErrorSignal or KindStreamClosed) and is then closed.
// Cancel the context to force-close the transport.
func (c *Client) Open(ctx context.Context, sessionID, message, role string) (<-chan Event, error) {
	q := url.Values{}
	q.Set("message", message)
	q.Set("role", role)
	q.Set("user_id", c.userID)
	addr := fmt.Sprintf("%s/stream/%s?%s", c.baseURL, url.PathEscape(sessionID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	events := make(chan Event, 16)
	go c.read(ctx, resp, events)
	return events, nil
}

// read scans the SSE body, decodes complete events, and closes the channel
// after emitting one terminal event.
func (c *Client) read(ctx context.Context, resp *http.Response, events chan<- Event) {
	defer resp.Body.Close()
	defer close(events)

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var eventName string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		// Empty line signals end of one SSE event. Dispatch on the name
		// alone: the error event may legitimately carry no data lines.
		if line == "" {
			if eventName != "" {
				data := strings.Join(dataLines, "\n")
				ev, known, err := Decode(eventName, []byte(data))
				switch {
				case err != nil:
					// Malformed payload: drop the event, keep the stream.
					c.logger.Warn("dropping malformed event",
						"event", eventName,
						"error", err)
				case !known:
					c.logger.Debug("ignoring unknown event", "event", eventName)
				default:
					if !c.deliver(ctx, events, ev) {
						return
					}
					if ev.Kind == KindErrorSignal {
						// Terminal: force-close the transport.
						return
					}
				}
			}
			eventName = ""
			dataLines = nil
			continue
		}

		if strings.HasPrefix(line, "event:") {
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if strings.HasPrefix(line, "data:") {
			// Strip the prefix and at most one leading space; the rest of
			// the line is payload.
			dataLines = append(dataLines, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
			continue
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		c.logger.Warn("channel read failed", "error", err)
	}

	// Transport closed without an explicit end event; synthesize the
	// terminal signal so the state machine has an unambiguous transition.
	c.deliver(ctx, events, Event{Kind: KindStreamClosed})
}

// deliver sends one event, giving up when the consumer stalls or the turn is
// cancelled. Returns false when the reader should stop.
func (c *Client) deliver(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(5 * time.Second):
		c.logger.Warn("event channel full, dropping event", "kind", ev.Kind.String())
		return true
	}
}

// ABOUTME: Renders a session transcript to a standalone HTML document
// ABOUTME: Assistant markdown goes through goldmark; user text is escaped verbatim

package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/fablesmith/fable-client/internal/agents"
	"github.com/fablesmith/fable-client/internal/persist"
)

const pageHeader = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 48rem; margin: 2rem auto; font-family: sans-serif; line-height: 1.5; }
.user { background: #eef2ff; padding: 0.5rem 1rem; border-radius: 6px; margin: 1rem 0; }
.assistant { padding: 0.5rem 1rem; margin: 1rem 0; }
.label { font-size: 0.75rem; color: #666; text-transform: uppercase; }
</style>
</head>
<body>
<h1>%s</h1>
`

// RenderTranscript produces an HTML document for one session's timeline.
// Assistant messages are treated as markdown and converted; user messages
// are escaped and rendered as-is.
func RenderTranscript(s persist.Session, messages []persist.Message) ([]byte, error) {
	var buf bytes.Buffer

	title := html.EscapeString(s.Title)
	fmt.Fprintf(&buf, pageHeader, title, title)

	for _, m := range messages {
		switch m.Role {
		case persist.RoleUser:
			buf.WriteString(`<div class="user"><div class="label">You</div>`)
			buf.WriteString("<p>")
			buf.WriteString(strings.ReplaceAll(html.EscapeString(m.Content), "\n", "<br>"))
			buf.WriteString("</p></div>\n")

		case persist.RoleAssistant:
			label := agents.Label(m.Agent)
			fmt.Fprintf(&buf, `<div class="assistant"><div class="label">%s</div>`, html.EscapeString(label))
			var body bytes.Buffer
			if err := goldmark.Convert([]byte(m.Content), &body); err != nil {
				return nil, fmt.Errorf("converting message %s: %w", m.ID, err)
			}
			buf.Write(body.Bytes())
			buf.WriteString("</div>\n")
		}
	}

	buf.WriteString("</body>\n</html>\n")
	return buf.Bytes(), nil
}

// ABOUTME: Fixed catalog of server-side agent personas the client can address
// ABOUTME: Ids are opaque strings on the wire; labels are for display only

package agents

import "strings"

// Agent describes one selectable persona.
type Agent struct {
	ID    string
	Label string
}

// Catalog lists the agents the backend serves, in display order. The first
// entry is the default for new sessions.
var Catalog = []Agent{
	{ID: "gm", Label: "Game Master"},
	{ID: "narrator", Label: "Narrator"},
	{ID: "writer", Label: "Writer"},
	{ID: "coach", Label: "Coach"},
	{ID: "researcher", Label: "Researcher"},
}

// Default returns the agent id used when none is specified.
func Default() string {
	return Catalog[0].ID
}

// Valid reports whether id names a cataloged agent.
func Valid(id string) bool {
	for _, a := range Catalog {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Label returns the display label for an agent id. Unknown ids (the server
// may define agents this build does not know) fall back to the uppercased id.
func Label(id string) string {
	for _, a := range Catalog {
		if a.ID == id {
			return a.Label
		}
	}
	return strings.ToUpper(id)
}

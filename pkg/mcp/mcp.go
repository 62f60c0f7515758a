// Package mcp exposes the inlay collection over the Model Context Protocol,
// so that agents can inspect and edit inlays while the overlay is running.
package mcp

import "github.com/modelcontextprotocol/go-sdk/jsonschema"

const (
	name         = "browserhost"
	instructions = `MCP Server 'browserhost' manages the web page inlays drawn over the game.

When to use these tools:
- Finding out which inlays exist and what they show
- Adding, renaming, or pointing inlays at different pages
- Locking inlays in place or letting mouse events pass through them
- Reloading a page or opening its developer tools

REQUIRED workflow:
1. Use 'list_inlays' first to see all inlays and their IDs
2. Use the EXACT 'id' values from 'list_inlays' output with every other tool
3. Use 'update_inlay' with navigate=true when the new URL should be loaded immediately

IMPORTANT: 'remove_inlay' cannot be undone.
`

	maxErrorLength = 500
)

func idSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "The ID of the inlay, EXACTLY as returned by list_inlays.",
	}
}

func inlayIDParamsSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"id": idSchema(),
		},
		Required: []string{"id"},
	}
}

// truncateString truncates a string to maxLen bytes with a marker if needed.
func truncateString(str string, maxLen int) string {
	if len(str) > maxLen {
		return str[:maxLen] + " [TRUNCATED]"
	}

	return str
}

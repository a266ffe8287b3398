// Package routes defines HTTP route constants for the viewer.
package routes

const (
	RobotsPath = "/robots.txt"
	RootPath   = "/"
	SSEPath    = "/sse"

	SyntaxThemeSet = "/syntax-theme/set"

	// Draft form
	Draft       = "/draft"
	DraftImage  = "/draft/image"
	DraftSubmit = "/draft/submit"
	DraftCancel = "/draft/cancel"

	// Per-post actions; {id} is the decimal post id.
	PostEdit   = "/posts/{id}/edit"
	PostDelete = "/posts/{id}/delete"
)

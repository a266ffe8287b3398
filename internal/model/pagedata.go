package model

import (
	"html/template"
	"net/http"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/theme"
)

// PageData is shared by every page the viewer renders.
type PageData struct {
	SiteName string

	PageURL string

	SyntaxCSS    template.CSS
	SyntaxTheme  string
	SyntaxThemes []string
}

func NewPageData(r *http.Request, cfg *config.Config) *PageData {
	syntaxTheme := theme.SyntaxThemeFromRequest(r, cfg.Render.SyntaxTheme)
	return &PageData{
		SiteName:     cfg.Site.Name,
		PageURL:      r.URL.Path,
		SyntaxTheme:  syntaxTheme,
		SyntaxThemes: theme.GetSyntaxThemes(),
		SyntaxCSS:    theme.GenerateSyntaxCSS(syntaxTheme),
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/debemdeboas/postboard/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	metaStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Italic(true)
)

// postSummary is the JSON shape of a listed post. The image is reduced to
// its size since the data URI itself is rarely useful on a terminal.
type postSummary struct {
	ID         model.PostID `json:"id"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Date       string       `json:"date"`
	ImageBytes int          `json:"image_bytes"`
}

func writePostsJSON(w io.Writer, posts []model.Post) error {
	out := make([]postSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, postSummary{
			ID:         p.ID,
			Title:      p.Title,
			Content:    p.Content,
			Date:       p.Date,
			ImageBytes: len(p.Image),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writePostsText(w io.Writer, posts []model.Post, emptyMessage string) {
	if len(posts) == 0 {
		fmt.Fprintln(w, emptyStyle.Render(emptyMessage))
		return
	}

	for i, p := range posts {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, titleStyle.Render(p.Title))
		fmt.Fprintln(w, p.Content)
		fmt.Fprintln(w, metaStyle.Render(fmt.Sprintf("#%s  %s", p.ID, p.Date)))
	}
}

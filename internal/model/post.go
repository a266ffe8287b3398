// Package model defines core data structures and types for the post board.
package model

import "strconv"

type PostID int64

func (id PostID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParsePostID parses the decimal form produced by PostID.String.
func ParsePostID(s string) (PostID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return PostID(v), nil
}

// Post is the persisted entity. The JSON layout is the on-disk record format.
type Post struct {
	ID PostID `json:"id"`

	Title   string `json:"title"`
	Content string `json:"content"`

	// Data URI, e.g. "data:image/png;base64,...".
	Image string `json:"image"`

	// Formatted once at creation, never rewritten.
	Date string `json:"date"`
}

// Valid reports whether every required field is non-empty.
func (p *Post) Valid() bool {
	return p.Title != "" && p.Content != "" && p.Image != "" && p.Date != ""
}

// Draft is the transient, unpersisted form input.
type Draft struct {
	Title   string
	Content string
	Image   string
}

// Complete reports whether the draft can become (or replace) a post.
func (d Draft) Complete() bool {
	return d.Title != "" && d.Content != "" && d.Image != ""
}

func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// DraftFromPost copies the editable fields of p.
func DraftFromPost(p Post) Draft {
	return Draft{
		Title:   p.Title,
		Content: p.Content,
		Image:   p.Image,
	}
}

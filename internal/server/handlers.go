package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/editor"
	"github.com/debemdeboas/postboard/internal/imaging"
	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/routes"
	"github.com/debemdeboas/postboard/internal/sse"
	"github.com/debemdeboas/postboard/internal/theme"
)

type indexData struct {
	*model.PageData

	EmptyMessage string
	Markdown     bool

	Posts   []model.Post
	Draft   model.Draft
	Editing bool
	Target  model.PostID
}

func (d indexData) SubmitLabel() string {
	if d.Editing {
		return "Update Post"
	}
	return "Add Post"
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	draft, target, editing := s.app.Editor.Snapshot()

	data := indexData{
		PageData:     model.NewPageData(r, s.cfg),
		EmptyMessage: s.cfg.Site.EmptyMessage,
		Markdown:     s.cfg.Render.Markdown,
		Posts:        s.app.Store.List(),
		Draft:        draft,
		Editing:      editing,
		Target:       target,
	}

	w.Header().Set(config.HCType, config.CTypeHTML)
	if err := s.tmpl.ExecuteTemplate(w, config.TemplateLayout, data); err != nil {
		s.logger.Error().Err(err).Msg("Error rendering index")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// applyForm copies whatever draft fields the request carries into the
// controller. An uploaded image is encoded before returning so the next
// page load shows it.
func (s *Server) applyForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, int64(s.cfg.Server.MaxUploadMB)<<20)
	if err := r.ParseMultipartForm(config.MaxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}

	fields := map[string]editor.Field{
		config.FormTitle:   editor.FieldTitle,
		config.FormContent: editor.FieldContent,
	}
	for name, field := range fields {
		if values, ok := r.Form[name]; ok && len(values) > 0 {
			if err := s.app.Editor.SetField(field, values[0]); err != nil {
				return err
			}
		}
	}

	src, err := uploadedImage(r)
	if err != nil || src == nil {
		return err
	}

	select {
	case <-s.app.Editor.SelectImage(src):
	case <-r.Context().Done():
		return r.Context().Err()
	}
	return nil
}

// uploadedImage returns nil when no file was chosen.
func uploadedImage(r *http.Request) (imaging.Source, error) {
	file, header, err := r.FormFile(config.FormImage)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if header.Size == 0 && header.Filename == "" {
		return nil, nil
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("error reading upload: %w", err)
	}
	return imaging.BytesSource{Filename: header.Filename, Data: data}, nil
}

func (s *Server) formError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.logger.Warn().Int64("limit", tooLarge.Limit).Msg("Form submission too large")
		http.Error(w, "upload too large", http.StatusRequestEntityTooLarge)
		return
	}
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) backToIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, routes.RootPath, http.StatusSeeOther)
}

func (s *Server) serveDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.applyForm(w, r); err != nil {
		s.formError(w, err)
		return
	}
	s.backToIndex(w, r)
}

func (s *Server) serveDraftSubmit(w http.ResponseWriter, r *http.Request) {
	if err := s.applyForm(w, r); err != nil {
		s.formError(w, err)
		return
	}

	outcome := s.app.Editor.Submit()
	s.logger.Debug().Stringer("outcome", outcome).Msg("Form submitted")
	s.backToIndex(w, r)
}

func (s *Server) serveDraftCancel(w http.ResponseWriter, r *http.Request) {
	s.app.Editor.Cancel()
	s.backToIndex(w, r)
}

func (s *Server) servePostEdit(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParsePostID(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	p, ok := s.app.Store.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}

	s.app.Editor.StartEdit(p)
	s.backToIndex(w, r)
}

func (s *Server) servePostDelete(w http.ResponseWriter, r *http.Request) {
	id, err := model.ParsePostID(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.app.Store.Delete(id)
	s.backToIndex(w, r)
}

func (s *Server) serveSyntaxThemeSet(w http.ResponseWriter, r *http.Request) {
	currTheme := r.FormValue("syntax-theme-select")
	if !theme.IsKnown(currTheme) {
		http.Error(w, "unknown syntax theme", http.StatusBadRequest)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     theme.CookieSyntaxTheme,
		Value:    currTheme,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.backToIndex(w, r)
}

func (s *Server) eventsHandler(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set(config.HCType, "text/event-stream")
	w.Header().Set(config.HCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Del("X-Content-Type-Options")

	client := sse.NewClient()
	s.clients.Add(client)
	s.logger.Debug().Int("clients", s.clients.Len()).Msg("SSE client connected")

	fmt.Fprintf(w, "event: connected\ndata: SSE connection established\n\n")
	flusher.Flush()

	defer func() {
		s.clients.Delete(client)
		s.logger.Debug().Msg("SSE client disconnected")
	}()

	notify := r.Context().Done()
	for {
		select {
		case msg := <-client.Msg:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

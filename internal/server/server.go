// Package server is the local single-user web viewer of the post board.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/postboard/internal/app"
	"github.com/debemdeboas/postboard/internal/cache"
	"github.com/debemdeboas/postboard/internal/config"
	"github.com/debemdeboas/postboard/internal/model"
	"github.com/debemdeboas/postboard/internal/render"
	"github.com/debemdeboas/postboard/internal/routes"
	"github.com/debemdeboas/postboard/internal/sse"
	"github.com/debemdeboas/postboard/internal/util"
)

//go:embed static/* templates/*
var content embed.FS

type Server struct {
	app     *app.App
	cfg     *config.Config
	clients *sse.SSEClients
	tmpl    *template.Template
	mux     *http.ServeMux
	logger  zerolog.Logger

	unsubscribe func()
}

// New builds the viewer around a, and subscribes it to the store so every
// mutation pushes a reload to connected browsers.
func New(a *app.App, logger zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(content,
		config.TemplatesLocalDir+"/"+config.TemplateLayout,
		config.TemplatesLocalDir+"/"+config.TemplateIndex,
	)
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}

	static, err := fs.Sub(content, config.StaticLocalDir)
	if err != nil {
		return nil, err
	}
	if err := hashStatic(static); err != nil {
		return nil, fmt.Errorf("error hashing static files: %w", err)
	}

	s := &Server{
		app:     a,
		cfg:     a.Config,
		clients: sse.NewSSEClients(),
		tmpl:    tmpl,
		mux:     http.NewServeMux(),
		logger:  logger,
	}

	s.mux.HandleFunc("GET "+routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("User-agent: *\nDisallow: /"))
	})
	s.mux.Handle("GET "+config.StaticUrlPath, http.StripPrefix(config.StaticUrlPath, http.FileServer(http.FS(static))))
	s.mux.HandleFunc("GET "+routes.SSEPath, s.eventsHandler)
	s.mux.HandleFunc("GET /{$}", s.serveIndex)

	s.mux.HandleFunc("POST "+routes.Draft, s.serveDraft)
	s.mux.HandleFunc("POST "+routes.DraftImage, s.serveDraft)
	s.mux.HandleFunc("POST "+routes.DraftSubmit, s.serveDraftSubmit)
	s.mux.HandleFunc("POST "+routes.DraftCancel, s.serveDraftCancel)
	s.mux.HandleFunc("POST "+routes.PostEdit, s.servePostEdit)
	s.mux.HandleFunc("POST "+routes.PostDelete, s.servePostDelete)
	s.mux.HandleFunc("POST "+routes.SyntaxThemeSet, s.serveSyntaxThemeSet)

	s.unsubscribe = a.Store.Subscribe(func([]model.Post) {
		s.clients.Broadcast(sse.EventReload)
	})

	return s, nil
}

// Handler wraps the routes with the caching and security headers.
func (s *Server) Handler() http.Handler {
	secured := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == routes.RobotsPath { // Ignore robots.txt
			s.mux.ServeHTTP(w, r)
		} else {
			secureHeaders(s.mux.ServeHTTP)(w, r)
		}
	})
	return cacheIt(secured)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Viewer listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close detaches the viewer from the store.
func (s *Server) Close() {
	s.unsubscribe()
}

func hashStatic(static fs.FS) error {
	return fs.WalkDir(static, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(static, path)
		if err != nil {
			return err
		}
		cache.SetStaticHash(config.StaticUrlPath+path, `"`+util.ShortHash(data, 16)+`"`)
		return nil
	})
}

var templateFuncs = template.FuncMap{
	// imageURL lets a data URI through as an img src. Anything else is
	// dropped so a stored value cannot smuggle in a javascript: URL.
	"imageURL": func(uri string) template.URL {
		if strings.HasPrefix(uri, "data:") {
			return template.URL(uri)
		}
		return ""
	},
	"render": render.RenderContentCached,
}

func cacheIt(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCacheControl, "no-cache")

		// Add etag header to response if it's a static file
		if hash, ok := cache.GetStaticHash(r.URL.Path); ok {
			if r.Header.Get("If-None-Match") == hash {
				w.WriteHeader(http.StatusNotModified)
				return
			}
			w.Header().Set(config.HCacheControl, "public, max-age=3600")
			w.Header().Set(config.HETag, hash)
		}

		h(w, r)
	}
}

func secureHeaders(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "deny")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'")

		h(w, r)
	}
}

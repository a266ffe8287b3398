// Package imaging turns a selected file into a data URI that can be
// embedded directly as an image source.
package imaging

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

const fallbackMIME = "application/octet-stream"

type Result struct {
	DataURI string
	Err     error
}

type Encoder struct {
	logger zerolog.Logger
}

func NewEncoder(logger zerolog.Logger) *Encoder {
	return &Encoder{logger: logger}
}

// Encode reads src in the background. The returned channel yields exactly
// one Result and is then closed. A nil src yields nothing: the channel is
// closed immediately.
func (e *Encoder) Encode(ctx context.Context, src Source) <-chan Result {
	out := make(chan Result, 1)
	if src == nil {
		close(out)
		return out
	}

	go func() {
		defer close(out)
		uri, err := e.encode(ctx, src)
		if err != nil {
			e.logger.Debug().Err(err).Str("file", src.Name()).Msg("Image encode failed")
		}
		out <- Result{DataURI: uri, Err: err}
	}()

	return out
}

// EncodeSync is Encode for callers that have nothing else to do meanwhile.
func (e *Encoder) EncodeSync(ctx context.Context, src Source) (string, error) {
	if src == nil {
		return "", fmt.Errorf("no file selected")
	}
	return e.encode(ctx, src)
}

func (e *Encoder) encode(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("error opening %s: %w", src.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", src.Name(), err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	uri := DataURI(DetectMIME(data, src.Name()), data)
	e.logger.Debug().Str("file", src.Name()).Int("bytes", len(data)).Msg("Image encoded")
	return uri, nil
}

// DataURI formats data as "data:<mimeType>;base64,<payload>".
func DataURI(mimeType string, data []byte) string {
	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// DetectMIME sniffs the content first and falls back to the file
// extension. Parameters such as charset are dropped.
func DetectMIME(data []byte, filename string) string {
	if len(data) > 0 {
		if m := mimetype.Detect(data); !m.Is(fallbackMIME) {
			return stripParams(m.String())
		}
	}

	if ext := filepath.Ext(filename); ext != "" {
		if t := mime.TypeByExtension(ext); t != "" {
			return stripParams(t)
		}
	}

	return fallbackMIME
}

func stripParams(mediaType string) string {
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	return strings.TrimSpace(mediaType)
}

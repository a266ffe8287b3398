package imaging

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
)

// Source is a single user-selected file.
type Source interface {
	// Name is the file's base name, used only as a MIME type hint.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type FileSource struct {
	Path string
}

func (f FileSource) Name() string {
	return filepath.Base(f.Path)
}

func (f FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

// BytesSource wraps content that is already in memory, such as an upload.
type BytesSource struct {
	Filename string
	Data     []byte
}

func (b BytesSource) Name() string {
	return b.Filename
}

func (b BytesSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}

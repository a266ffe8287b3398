// Package compression provides the codecs applied to persisted records.
package compression

import (
	"bytes"
	"fmt"
)

type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

const (
	Zstd = "zstd"
	Gzip = "gzip"
	None = "none"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	gzipMagic = []byte{0x1f, 0x8b}
)

// ForName returns the compressor configured under name.
func ForName(name string) (Compressor, error) {
	switch name {
	case Zstd:
		return ZstdCompressor{}, nil
	case Gzip:
		return GzipCompressor{}, nil
	case None, "":
		return NoneCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// Detect picks the compressor that produced data by its frame magic.
// Anything unrecognised is treated as uncompressed, so records written
// under a different setting still load.
func Detect(data []byte) Compressor {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		return ZstdCompressor{}
	case bytes.HasPrefix(data, gzipMagic):
		return GzipCompressor{}
	default:
		return NoneCompressor{}
	}
}

type NoneCompressor struct{}

func (NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

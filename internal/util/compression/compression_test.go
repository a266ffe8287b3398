package compression

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payload := []byte(`[{"id":1,"title":"Hello","content":"World","image":"data:img1","date":"1/2/2025"}]`)

	for _, name := range []string{Zstd, Gzip, None} {
		t.Run(name, func(t *testing.T) {
			c, err := ForName(name)
			if err != nil {
				t.Fatalf("ForName(%q) failed: %v", name, err)
			}

			compressed, err := c.Compress(payload)
			if err != nil {
				t.Fatalf("Compress failed: %v", err)
			}

			// The reader must not need to know which codec wrote the record.
			out, err := Detect(compressed).Decompress(compressed)
			if err != nil {
				t.Fatalf("Decompress failed: %v", err)
			}
			if !bytes.Equal(out, payload) {
				t.Errorf("Expected %q, got %q", payload, out)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	zc, _ := ZstdCompressor{}.Compress([]byte("x"))
	gc, _ := GzipCompressor{}.Compress([]byte("x"))

	testCases := []struct {
		name string
		data []byte
		want Compressor
	}{
		{"zstd frame", zc, ZstdCompressor{}},
		{"gzip stream", gc, GzipCompressor{}},
		{"plain json", []byte(`[]`), NoneCompressor{}},
		{"empty", nil, NoneCompressor{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Detect(tc.data); got != tc.want {
				t.Errorf("Expected %T, got %T", tc.want, got)
			}
		})
	}
}

func TestForNameUnknown(t *testing.T) {
	if _, err := ForName("lz4"); err == nil {
		t.Error("Expected error for unknown compression")
	}
}

func TestCorruptInput(t *testing.T) {
	bad := append([]byte{}, zstdMagic...)
	bad = append(bad, 0x00, 0x01, 0x02)
	if _, err := (ZstdCompressor{}).Decompress(bad); err == nil {
		t.Error("Expected error decompressing a truncated zstd frame")
	}

	if _, err := (GzipCompressor{}).Decompress([]byte{0x1f, 0x8b, 0x00}); err == nil {
		t.Error("Expected error decompressing a truncated gzip stream")
	}
}

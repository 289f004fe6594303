// The compression package selects and applies transparent compression to
// encoded payloads, either as stream filters or as whole-buffer helpers.
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

var (
	ErrUnknownMode = errors.New("compression: unknown compression mode")
	ErrCorrupt     = errors.New("compression: malformed compressed data")
)

// Mode selects the compression applied to a payload.
type Mode uint8

const (
	None Mode = iota
	Gzip
	Zstd
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	default:
		return fmt.Sprintf("mode(%d)", uint8(m))
	}
}

// ParseMode parses a mode from its string representation.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "none":
		return None, nil
	case "gzip":
		return Gzip, nil
	case "zstd":
		return Zstd, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Ext returns the file extension associated with the mode, or an empty
// string for None.
func (m Mode) Ext() string {
	switch m {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	}
	return ""
}

// ModeForPath derives the compression mode from the path's final extension.
// Unrecognized extensions map to None.
func ModeForPath(path string) Mode {
	switch filepath.Ext(path) {
	case ".gz":
		return Gzip
	case ".zst":
		return Zstd
	}
	return None
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w in a compressing filter for the mode.
// Closing the returned writer flushes the filter but never closes w;
// the caller remains responsible for w's lifetime.
func NewWriter(w io.Writer, m Mode) (io.WriteCloser, error) {
	switch m {
	case None:
		return nopWriteCloser{w}, nil
	case Gzip:
		return gzip.NewWriter(w), nil
	case Zstd:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("compression: %w", err)
		}
		return zw, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMode, m)
}

// NewReader wraps r in a decompressing filter for the mode.
// Closing the returned reader releases the filter but never closes r.
// ErrCorrupt is returned if the stream does not hold valid compressed data.
func NewReader(r io.Reader, m Mode) (io.ReadCloser, error) {
	switch m {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return gr, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return zr.IOReadCloser(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownMode, m)
}

// Compress returns data compressed with the mode.
// For None the input is returned unchanged (no copy).
func Compress(data []byte, m Mode) ([]byte, error) {
	if m == None {
		return data, nil
	}
	var buf bytes.Buffer
	w, err := NewWriter(&buf, m)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compression: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compression: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress restores data compressed with the mode.
// For None the input is returned unchanged (no copy).
func Decompress(data []byte, m Mode) ([]byte, error) {
	if m == None {
		return data, nil
	}
	r, err := NewReader(bytes.NewReader(data), m)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

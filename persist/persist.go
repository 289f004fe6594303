package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/holmberd/go-persist/compression"
	"github.com/holmberd/go-persist/encoder"
)

var (
	// ErrNotFound is returned when loading from a path that does not exist.
	ErrNotFound = errors.New("persist: file not found")

	// ErrSerialization is returned when the structural codec rejects a
	// value graph or the stored byte content.
	ErrSerialization = errors.New("persist: serialization failed")
)

// codec is the structural codec behind every persistence surface.
var codec = encoder.CBOR()

// Save encodes v onto w, compressed according to mode. The writer is
// left open; the caller owns its lifetime.
func Save(v any, w io.Writer, mode compression.Mode) error {
	cw, err := compression.NewWriter(w, mode)
	if err != nil {
		return err
	}
	if err := codec.NewEncoder(cw).Encode(v); err != nil {
		cw.Close()
		return fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	// Close flushes the compression filter, not w.
	if err := cw.Close(); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}

// SaveBytes encodes v into a byte slice.
func SaveBytes(v any, mode compression.Mode) ([]byte, error) {
	var buf bytes.Buffer
	if err := Save(v, &buf, mode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SaveFile writes v to path, deriving the compression mode from the
// path's extension.
func SaveFile(v any, path string) (string, error) {
	return SaveFileMode(v, path, compression.ModeForPath(path))
}

// SaveFileMode writes v to path with the given mode, creating missing
// ancestor directories and truncating existing content. The returned
// path is the final on-disk location, which may carry an appended
// compression extension.
func SaveFileMode(v any, path string, mode compression.Mode) (string, error) {
	path, err := NormalizeSavePath(path, mode)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("persist: %w", err)
	}
	if err := Save(v, f, mode); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("persist: %w", err)
	}
	return path, nil
}

// NewSaveReader returns a reader streaming the encoded form of v. The
// encode runs in a background goroutine, so callers can pipe large
// values into non-blocking sinks without buffering them first. Closing
// the reader aborts the encode; an encode failure surfaces as the
// reader's terminal error.
func NewSaveReader(v any, mode compression.Mode) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(Save(v, pw, mode))
	}()
	return pr
}

// DeepClone copies v through a save/load round trip, so clone equality
// is exactly round-trip equality.
func DeepClone[T any](v T) (T, error) {
	data, err := SaveBytes(v, compression.None)
	if err != nil {
		var zero T
		return zero, err
	}
	return LoadBytes[T](data, compression.None)
}

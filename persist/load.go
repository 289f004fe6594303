package persist

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/holmberd/go-persist/coerce"
	"github.com/holmberd/go-persist/compat"
	"github.com/holmberd/go-persist/compression"
)

// Load decodes a value of type T from r, decompressing according to
// mode.
//
// The load pipeline holds the global resolution lock for its full
// duration: the requested type's compatibility hook is discovered and
// installed, the payload is decoded dynamically, legacy envelopes are
// materialized through the resolver, and a decoded value that is not
// already a T passes through the coercion fallback. The hook is
// released on every exit path.
func Load[T any](r io.Reader, mode compression.Mode) (T, error) {
	var zero T
	target := reflect.TypeOf((*T)(nil)).Elem()

	release := compat.Install(compat.HookFor(target))
	defer release()

	cr, err := compression.NewReader(r, mode)
	if err != nil {
		return zero, err
	}
	defer cr.Close()

	data, err := io.ReadAll(cr)
	if err != nil {
		if mode != compression.None {
			return zero, fmt.Errorf("%w: %v", compression.ErrCorrupt, err)
		}
		return zero, fmt.Errorf("persist: %w", err)
	}

	var raw any
	if err := codec.Unmarshal(data, &raw); err != nil {
		return zero, fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	if name, fields, ok := compat.Envelope(raw); ok {
		v, err := compat.Materialize(name, fields)
		if err != nil {
			return zero, err
		}
		return coerce.As[T](v)
	}

	if v, ok := raw.(T); ok {
		return v, nil
	}

	// The dynamic result is not an exact match. A typed re-decode of
	// the same bytes preserves codec-level conversions (byte strings,
	// embedded timestamps) that a generic coercion would lose; only
	// when the codec itself cannot produce a T does the coercion
	// fallback run.
	var out T
	if err := codec.Unmarshal(data, &out); err == nil {
		return out, nil
	}
	return coerce.As[T](raw)
}

// LoadBytes decodes a value of type T from an in-memory payload.
func LoadBytes[T any](data []byte, mode compression.Mode) (T, error) {
	return Load[T](bytes.NewReader(data), mode)
}

// LoadFile decodes a value of type T from the file at path, deriving
// the compression mode from the path's extension. ErrNotFound is
// returned when the file does not exist.
func LoadFile[T any](path string) (T, error) {
	return LoadFileMode[T](path, compression.ModeForPath(path))
}

// LoadFileMode decodes a value of type T from the file at path with an
// explicit compression mode.
func LoadFileMode[T any](path string, mode compression.Mode) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		if os.IsNotExist(err) {
			return zero, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return zero, fmt.Errorf("persist: %w", err)
	}
	defer f.Close()
	return Load[T](f, mode)
}

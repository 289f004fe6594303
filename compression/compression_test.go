package compression

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMode(t *testing.T) {
	t.Run("String representation round trip", func(t *testing.T) {
		for _, m := range []Mode{None, Gzip, Zstd} {
			parsed, err := ParseMode(m.String())
			require.NoError(t, err)
			assert.Equal(t, m, parsed)
		}
	})

	t.Run("Parse unknown mode", func(t *testing.T) {
		_, err := ParseMode("brotli")
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("Derive mode from path extension", func(t *testing.T) {
		assert.Equal(t, Gzip, ModeForPath("model.bin.gz"))
		assert.Equal(t, Zstd, ModeForPath("model.bin.zst"))
		assert.Equal(t, None, ModeForPath("model.bin"))
		assert.Equal(t, None, ModeForPath("model"))
	})

	t.Run("Mode file extensions", func(t *testing.T) {
		assert.Equal(t, ".gz", Gzip.Ext())
		assert.Equal(t, ".zst", Zstd.Ext())
		assert.Equal(t, "", None.Ext())
	})
}

func TestStreamFilters(t *testing.T) {
	payload := []byte(strings.Repeat("compressible payload ", 64))

	for _, m := range []Mode{None, Gzip, Zstd} {
		t.Run("Round trip with "+m.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, m)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(bytes.NewReader(buf.Bytes()), m)
			require.NoError(t, err)
			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, payload, out)
		})
	}

	t.Run("Writer leaves the underlying sink open", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf, Gzip)
		require.NoError(t, err)
		_, err = w.Write(payload)
		require.NoError(t, err)
		require.NoError(t, w.Close())

		// The sink must still accept writes after the filter is closed.
		n, err := buf.Write([]byte("trailer"))
		require.NoError(t, err)
		assert.Equal(t, len("trailer"), n)
	})

	t.Run("Unknown mode fails", func(t *testing.T) {
		_, err := NewWriter(io.Discard, Mode(42))
		assert.ErrorIs(t, err, ErrUnknownMode)
		_, err = NewReader(bytes.NewReader(nil), Mode(42))
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("Malformed gzip stream fails", func(t *testing.T) {
		_, err := NewReader(bytes.NewReader([]byte("not gzip data")), Gzip)
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestBufferHelpers(t *testing.T) {
	payload := []byte(strings.Repeat("object persistence payload ", 32))

	for _, m := range []Mode{None, Gzip, Zstd} {
		t.Run("Round trip with "+m.String(), func(t *testing.T) {
			compressed, err := Compress(payload, m)
			require.NoError(t, err)
			if m != None {
				assert.Less(t, len(compressed), len(payload))
			}
			out, err := Decompress(compressed, m)
			require.NoError(t, err)
			assert.Equal(t, payload, out)
		})
	}

	t.Run("None mode is the identity transform", func(t *testing.T) {
		compressed, err := Compress(payload, None)
		require.NoError(t, err)
		assert.Equal(t, payload, compressed)
	})

	t.Run("Decompress malformed data", func(t *testing.T) {
		_, err := Decompress([]byte("garbage"), Gzip)
		assert.ErrorIs(t, err, ErrCorrupt)

		_, err = Decompress([]byte("garbage"), Zstd)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCorrupt))
	})
}

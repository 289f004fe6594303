package encoder

import "io"

// Codec marshals values to and from their encoded byte form.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, out any) error
}

// Encoder writes encoded values to an underlying stream.
type Encoder interface {
	Encode(v any) error
}

// Decoder reads encoded values from an underlying stream.
type Decoder interface {
	Decode(out any) error
}

// StreamCodec is a Codec that can also encode and decode directly
// against streams without intermediate buffering.
type StreamCodec interface {
	Codec
	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
}

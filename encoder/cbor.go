package encoder

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer encoding,
// no indefinite-length items. Same logical data always produces
// identical bytes, so byte equality implies structural equality.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are silently ignored.
var decMode cbor.DecMode

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("encoder: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any, the decoder must pick a
		// concrete map type. The CBOR default is
		// map[interface{}]interface{}; payloads written by this module
		// only use string keys, and downstream coercion expects
		// map[string]any.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("encoder: CBOR decoder initialization failed: " + err.Error())
	}
}

type cborCodec struct{}

// CBOR returns the default structural codec. Encoding is deterministic
// and any-typed decode targets materialize as map[string]any.
func CBOR() StreamCodec { return cborCodec{} }

func (cborCodec) Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func (cborCodec) Unmarshal(data []byte, out any) error {
	return decMode.Unmarshal(data, out)
}

func (cborCodec) NewEncoder(w io.Writer) Encoder {
	return encMode.NewEncoder(w)
}

func (cborCodec) NewDecoder(r io.Reader) Decoder {
	return decMode.NewDecoder(r)
}

package encoder

import (
	"fmt"

	"google.golang.org/protobuf/proto"
)

type protoCodec struct{}

// Proto returns a Codec for values implementing proto.Message.
// It is self-describing only to the message's own schema; payloads
// encoded with it bypass dynamic decoding and coercion.
func Proto() Codec { return protoCodec{} }

func (protoCodec) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("encoder: %T does not implement proto.Message", v)
	}
	return proto.Marshal(m)
}

func (protoCodec) Unmarshal(data []byte, out any) error {
	m, ok := out.(proto.Message)
	if !ok {
		return fmt.Errorf("encoder: target %T does not implement proto.Message", out)
	}
	return proto.Unmarshal(data, m)
}

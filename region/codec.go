package region

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// KeyCodec maps store keys to Redis hash fields and back.
type KeyCodec interface {
	EncodeKey(key any) (string, error)
	DecodeKey(field string) (any, error)
}

// ValueCodec maps stored values to bytes and back.
type ValueCodec interface {
	EncodeValue(value any) ([]byte, error)
	DecodeValue(data []byte) (any, error)
}

// Codec combines key and value encoding for byte-oriented stores.
type Codec interface {
	KeyCodec
	ValueCodec
}

// MsgpackCodec accepts string keys and msgpack-encodes values. Decoded
// values use loose interface decoding: integers come back as int64 or
// uint64 and floats as float64.
type MsgpackCodec struct{}

// EncodeKey accepts string and fmt.Stringer keys.
func (MsgpackCodec) EncodeKey(key any) (string, error) {
	switch k := key.(type) {
	case string:
		return k, nil
	case fmt.Stringer:
		return k.String(), nil
	default:
		return "", fmt.Errorf("region: cannot encode key of type %T", key)
	}
}

// DecodeKey returns the field unchanged.
func (MsgpackCodec) DecodeKey(field string) (any, error) {
	return field, nil
}

// EncodeValue msgpack-encodes value.
func (MsgpackCodec) EncodeValue(value any) ([]byte, error) {
	return msgpack.Marshal(value)
}

// DecodeValue msgpack-decodes data into a generic value.
func (MsgpackCodec) DecodeValue(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	return dec.DecodeInterfaceLoose()
}

// Ensure MsgpackCodec implements Codec
var _ Codec = MsgpackCodec{}

package cache

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/jonwraymond/reportcache/region"
)

// Codec encodes CompositeKeys and Snapshots for byte-oriented stores such
// as region.Redis.
//
// Keys are written with CompositeKey.String. Fields that do not parse back
// into a CompositeKey are reported as errors, so the store returns them raw
// and the Reaper skips them.
//
// Values are msgpack-encoded. Decoded cells use loose typing: integers come
// back as int64 or uint64, floats as float64 and times as time.Time.
type Codec struct{}

type snapshotWire struct {
	Columns []Column `msgpack:"c"`
	Rows    [][]any  `msgpack:"r"`
}

// EncodeKey accepts CompositeKey values.
func (Codec) EncodeKey(key any) (string, error) {
	ck, ok := asCompositeKey(key)
	if !ok {
		return "", fmt.Errorf("%w: %T", ErrMalformedKey, key)
	}
	return ck.String(), nil
}

// DecodeKey parses a field written by EncodeKey.
func (Codec) DecodeKey(field string) (any, error) {
	return ParseCompositeKey(field)
}

// EncodeValue encodes a Table as a Snapshot.
func (Codec) EncodeValue(value any) ([]byte, error) {
	t, ok := value.(Table)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %T", ErrNotSnapshot, value)
	}
	s := NewSnapshot(t)
	return msgpack.Marshal(snapshotWire{Columns: s.cols, Rows: s.rows})
}

// DecodeValue decodes bytes written by EncodeValue into a *Snapshot.
func (Codec) DecodeValue(data []byte) (any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)

	var w snapshotWire
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("cache: failed to decode snapshot: %w", err)
	}
	for i, row := range w.Rows {
		if len(row) != len(w.Columns) {
			return nil, fmt.Errorf("cache: snapshot row %d has %d values, want %d", i, len(row), len(w.Columns))
		}
	}
	return &Snapshot{cols: w.Columns, rows: w.Rows}, nil
}

// Ensure Codec implements region.Codec
var _ region.Codec = Codec{}

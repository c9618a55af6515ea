package cache

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"
)

// ColumnType names the value type carried by a column.
type ColumnType string

// Column types understood by the default classifier.
const (
	TypeString  ColumnType = "string"
	TypeInt     ColumnType = "int"
	TypeFloat   ColumnType = "float"
	TypeBool    ColumnType = "bool"
	TypeTime    ColumnType = "time"
	TypeDecimal ColumnType = "decimal"
	TypeBytes   ColumnType = "bytes"

	// Types below hold live or session-bound values and are not in the
	// default allowlist.
	TypeStream  ColumnType = "stream"
	TypeCursor  ColumnType = "cursor"
	TypeSession ColumnType = "session"
	TypeObject  ColumnType = "object"
)

// Column describes one column of a Table.
type Column struct {
	Name string     `msgpack:"name"`
	Type ColumnType `msgpack:"type"`
}

// Table is a fully materialized tabular result.
//
// Contract:
// - RowCount and ColumnCount are final once the table is offered to Put.
// - Value panics for out-of-range indices, like slice indexing.
type Table interface {
	RowCount() int
	ColumnCount() int
	Column(i int) Column
	Value(row, col int) any
}

// MemTable is a mutable in-memory Table used to build results.
// It is not safe for concurrent mutation.
type MemTable struct {
	cols []Column
	rows [][]any
}

// NewMemTable creates an empty table with the given columns.
func NewMemTable(cols ...Column) *MemTable {
	return &MemTable{cols: slices.Clone(cols)}
}

// AddRow appends a row. It returns an error if the value count does not
// match the column count.
func (t *MemTable) AddRow(values ...any) error {
	if len(values) != len(t.cols) {
		return fmt.Errorf("cache: row has %d values, table has %d columns", len(values), len(t.cols))
	}
	t.rows = append(t.rows, slices.Clone(values))
	return nil
}

// SetValue replaces a single cell.
func (t *MemTable) SetValue(row, col int, v any) {
	t.rows[row][col] = v
}

func (t *MemTable) RowCount() int          { return len(t.rows) }
func (t *MemTable) ColumnCount() int       { return len(t.cols) }
func (t *MemTable) Column(i int) Column    { return t.cols[i] }
func (t *MemTable) Value(row, col int) any { return t.rows[row][col] }

// Snapshot is an immutable copy of a Table. Snapshots are what the cache
// stores and hands back; they are safe for concurrent reads.
type Snapshot struct {
	cols []Column
	rows [][]any
}

// NewSnapshot copies t into a Snapshot. Byte slices, big numbers, []any and
// map[string]any cells are deep-copied; other values are kept as they are.
// Policy.Admit rejects tables holding other mutable cells. A Snapshot is
// returned as is.
func NewSnapshot(t Table) *Snapshot {
	if s, ok := t.(*Snapshot); ok {
		return s
	}

	cols := make([]Column, t.ColumnCount())
	for i := range cols {
		cols[i] = t.Column(i)
	}

	rows := make([][]any, t.RowCount())
	for r := range rows {
		row := make([]any, len(cols))
		for c := range row {
			row[c] = copyValue(t.Value(r, c))
		}
		rows[r] = row
	}

	return &Snapshot{cols: cols, rows: rows}
}

func (s *Snapshot) RowCount() int       { return len(s.rows) }
func (s *Snapshot) ColumnCount() int    { return len(s.cols) }
func (s *Snapshot) Column(i int) Column { return s.cols[i] }

// Value returns the cell at (row, col). Mutable cells are returned as copies.
func (s *Snapshot) Value(row, col int) any {
	return copyValue(s.rows[row][col])
}

// Columns returns a copy of the column descriptors.
func (s *Snapshot) Columns() []Column {
	return slices.Clone(s.cols)
}

func copyValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return slices.Clone(x)
	case *big.Int:
		if x == nil {
			return x
		}
		return new(big.Int).Set(x)
	case *big.Rat:
		if x == nil {
			return x
		}
		return new(big.Rat).Set(x)
	case *big.Float:
		if x == nil {
			return x
		}
		return new(big.Float).Copy(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = copyValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = copyValue(e)
		}
		return out
	default:
		return v
	}
}

// copyable reports whether copyValue fully detaches v from its source.
func copyable(v any) bool {
	switch x := v.(type) {
	case nil, []byte, *big.Int, *big.Rat, *big.Float:
		return true
	case []any:
		for _, e := range x {
			if !copyable(e) {
				return false
			}
		}
		return true
	case map[string]any:
		for _, e := range x {
			if !copyable(e) {
				return false
			}
		}
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func,
		reflect.UnsafePointer, reflect.Interface:
		return false
	default:
		return true
	}
}

// detachable reports whether every cell of t can be copied into a Snapshot.
func detachable(t Table) bool {
	for r := range t.RowCount() {
		for c := range t.ColumnCount() {
			if !copyable(t.Value(r, c)) {
				return false
			}
		}
	}
	return true
}

// Ensure both table kinds implement Table
var (
	_ Table = (*MemTable)(nil)
	_ Table = (*Snapshot)(nil)
)

package cache

import (
	"strings"

	"github.com/jonwraymond/reportcache/observe"
)

// DefaultRowLimit is the row ceiling used by DefaultPolicy.
const DefaultRowLimit = 10000

// Classifier decides whether a result may be cached.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - IsSafe must not mutate the table.
type Classifier interface {
	IsSafe(t Table) bool
}

// ClassifierFunc adapts an ordinary function to a Classifier.
type ClassifierFunc func(Table) bool

// IsSafe calls f(t).
func (f ClassifierFunc) IsSafe(t Table) bool { return f(t) }

// TypeAllowlist is a Classifier that admits a table iff every column type
// is in the set. Matching is case-insensitive. Tables without columns are
// safe.
type TypeAllowlist map[ColumnType]struct{}

// NewTypeAllowlist builds an allowlist from type names.
func NewTypeAllowlist(types ...ColumnType) TypeAllowlist {
	a := make(TypeAllowlist, len(types))
	for _, ct := range types {
		a[normalizeType(ct)] = struct{}{}
	}
	return a
}

// DefaultAllowlist admits plain scalar column types only.
func DefaultAllowlist() TypeAllowlist {
	return NewTypeAllowlist(TypeString, TypeInt, TypeFloat, TypeBool, TypeTime, TypeDecimal, TypeBytes)
}

// Allows reports whether ct is in the allowlist.
func (a TypeAllowlist) Allows(ct ColumnType) bool {
	_, ok := a[normalizeType(ct)]
	return ok
}

// IsSafe implements Classifier.
func (a TypeAllowlist) IsSafe(t Table) bool {
	for i := range t.ColumnCount() {
		if !a.Allows(t.Column(i).Type) {
			return false
		}
	}
	return true
}

func normalizeType(ct ColumnType) ColumnType {
	return ColumnType(strings.ToLower(strings.TrimSpace(string(ct))))
}

// Policy is the admission policy applied by Put.
type Policy struct {
	// RowLimit is the largest row count that may be cached. Results with
	// exactly RowLimit rows are admitted. Negative values are treated as 0.
	RowLimit int

	// Classifier rejects results whose columns are not safe to cache.
	// If nil, DefaultAllowlist is used.
	Classifier Classifier
}

// DefaultPolicy returns the default admission policy.
// RowLimit: 10000, Classifier: DefaultAllowlist.
func DefaultPolicy() Policy {
	return Policy{
		RowLimit:   DefaultRowLimit,
		Classifier: DefaultAllowlist(),
	}
}

func (p Policy) normalized() Policy {
	if p.RowLimit < 0 {
		p.RowLimit = 0
	}
	if p.Classifier == nil {
		p.Classifier = DefaultAllowlist()
	}
	return p
}

// Admit evaluates the policy against t and returns the put outcome:
// "stored" when t may be cached, otherwise "oversized" or "unsafe".
// The row check runs first. A table the classifier accepts is still unsafe
// when a cell holds a pointer, slice or map that a Snapshot cannot copy.
func (p Policy) Admit(t Table) string {
	p = p.normalized()
	if t.RowCount() > p.RowLimit {
		return observe.OutcomeOversized
	}
	if !p.Classifier.IsSafe(t) || !detachable(t) {
		return observe.OutcomeUnsafe
	}
	return observe.OutcomeStored
}

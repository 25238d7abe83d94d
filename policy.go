package dancer

import "github.com/ordinaryparksee/dancer/schema"

// FakePolicy carries the knobs ValueFactory and RowSynthesizer consult
// while generating a value. DefaultFakePolicy gives 1% empty strings,
// 1% NULLs, and sign left untouched; the zero value produces no empty
// strings and no NULLs.
type FakePolicy struct {
	EmptyRatio      float64
	NullableRatio   float64
	PreventNegative bool

	// StrictExclusion switches ConstraintSet.AvailableForeignTuples
	// from an intentionally over-tight AND-of-negated-tuples exclusion
	// to the semantically correct NOT EXISTS form. Default false
	// preserves compatible behavior exactly; see DESIGN.md's Open
	// Question resolution.
	StrictExclusion bool

	// RetryLimit bounds RowSynthesizer's unique-collision retries.
	// Zero means the documented default of 100.
	RetryLimit int

	// OnCollision, if set, is called with the table name and the
	// tentative row fields every time ConstraintSet.Test rejects a
	// candidate row. Never called on final exhaustion; that path
	// always goes through ProgressSink instead.
	OnCollision func(table string, row map[string]any)
}

// DefaultFakePolicy returns the documented defaults.
func DefaultFakePolicy() FakePolicy {
	return FakePolicy{
		EmptyRatio:    0.01,
		NullableRatio: 0.01,
		RetryLimit:    100,
	}
}

func (p FakePolicy) retryLimit() int {
	if p.RetryLimit <= 0 {
		return 100
	}
	return p.RetryLimit
}

// FakeColumnOverrideKind tags which variant a FakeColumnOverride holds,
// modeled as an explicit sum type rather than a
// dynamically typed value.
type FakeColumnOverrideKind int

const (
	// OverrideNone means no override applies; ValueFactory generates
	// the value normally.
	OverrideNone FakeColumnOverrideKind = iota
	// OverrideConstant always yields the same fixed value.
	OverrideConstant
	// OverrideFactory calls a function of the column to produce a
	// value, once per row.
	OverrideFactory
	// OverrideKeyword dispatches to a named Faker method with fixed
	// keyword-style arguments, e.g. {"method": "word"}.
	OverrideKeyword
)

// FakeColumnOverride is a per-column generator override, supplied
// through FakeTable.Columns. Exactly one of Constant/Factory/Keyword is
// meaningful, selected by Kind.
type FakeColumnOverride struct {
	Kind FakeColumnOverrideKind

	// Constant is used when Kind == OverrideConstant.
	Constant any

	// Factory is used when Kind == OverrideFactory; it receives the
	// column being filled and returns the value to insert.
	Factory func(col *schema.Column) any

	// Keyword is used when Kind == OverrideKeyword; Method names a
	// Faker method (e.g. "word", "sentence") and Args are passed
	// through to it where applicable.
	Keyword KeywordOverride
}

// KeywordOverride names a Faker method plus optional fixed arguments to
// call it with.
type KeywordOverride struct {
	Method string
	Args   map[string]any
}

// ConstantOverride returns a FakeColumnOverride that always yields v.
func ConstantOverride(v any) FakeColumnOverride {
	return FakeColumnOverride{Kind: OverrideConstant, Constant: v}
}

// FactoryOverride returns a FakeColumnOverride that calls fn once per
// row to produce a value.
func FactoryOverride(fn func(col *schema.Column) any) FakeColumnOverride {
	return FakeColumnOverride{Kind: OverrideFactory, Factory: fn}
}

// KeywordOverrideFunc returns a FakeColumnOverride that dispatches to a
// named Faker method.
func KeywordOverrideFunc(method string, args map[string]any) FakeColumnOverride {
	return FakeColumnOverride{Kind: OverrideKeyword, Keyword: KeywordOverride{Method: method, Args: args}}
}

// FakeTable is the per-table override for one table: its target row
// count, any per-column overrides, and optional overrides of the
// generation policy that otherwise apply uniformly from the factory.
// EmptyRatio/NullableRatio/PreventNegative are pointers so "unset" (use
// the factory's value) is distinguishable from an explicit zero value.
type FakeTable struct {
	Table     string
	NumOfRows int
	Columns   map[string]FakeColumnOverride

	EmptyRatio      *float64
	NullableRatio   *float64
	PreventNegative *bool
}

func (t FakeTable) numOfRows() int {
	if t.NumOfRows <= 0 {
		return 1
	}
	return t.NumOfRows
}

// resolvePolicy returns factory with this table's EmptyRatio,
// NullableRatio, and PreventNegative overrides applied where set,
// leaving every other FakePolicy field (retry limit, strict exclusion,
// collision hook) inherited from factory unchanged.
func (t FakeTable) resolvePolicy(factory FakePolicy) FakePolicy {
	p := factory
	if t.EmptyRatio != nil {
		p.EmptyRatio = *t.EmptyRatio
	}
	if t.NullableRatio != nil {
		p.NullableRatio = *t.NullableRatio
	}
	if t.PreventNegative != nil {
		p.PreventNegative = *t.PreventNegative
	}
	return p
}

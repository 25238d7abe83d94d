// Package dancer is a constraint-aware row synthesis engine for
// MySQL-family databases: given a reflected schema graph, it walks
// tables in FK-dependency order and fills each with synthetic rows that
// respect column domains, nullability, foreign keys, and composite
// unique indexes.
package dancer

import "errors"

var (
	// ErrColumnNotFound names a failed lookup of an unknown column. No
	// function in this module returns it: Table.ColumnByName returns nil
	// for an unknown name.
	ErrColumnNotFound = errors.New("dancer: column not found")

	// ErrTableNotFound names a failed lookup of an unknown table. No
	// function in this module returns it: Database.TableByName returns
	// nil for an unknown name.
	ErrTableNotFound = errors.New("dancer: table not found")

	// ErrUnknownColumnType is returned when ValueFactory has no
	// generator for a column's base type and no override supplies one.
	ErrUnknownColumnType = errors.New("dancer: unknown column type")

	// ErrRetriesExhausted is reported via ProgressSink.Warn (never
	// returned as an error) when RowSynthesizer cannot satisfy a row's
	// unique constraints within the retry budget; the row is dropped
	// and generation continues with the next one.
	ErrRetriesExhausted = errors.New("dancer: exhausted retry limit")

	// ErrCyclicForeignKey is returned when the FK graph among distinct
	// tables contains a cycle GenerationDriver cannot resolve by
	// parent-first recursion.
	ErrCyclicForeignKey = errors.New("dancer: cyclic foreign key graph")
)

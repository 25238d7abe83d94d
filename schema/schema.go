// Package schema is the single source of truth for the MySQL-family
// structures this engine works against: databases, tables, columns,
// unique indexes and foreign-key edges. It holds no query logic of its
// own — introspect.SchemaReflector populates it, the root package reads
// it.
package schema

// Database is a named container owning an ordered list of Tables; it
// holds no connection handle. It is built once by a SchemaReflector and is
// immutable for the lifetime of a generation job.
type Database struct {
	Name   string
	Tables []*Table
}

// TableByName returns the table with the given name, or nil.
func (d *Database) TableByName(name string) *Table {
	for _, t := range d.Tables {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Table belongs to exactly one Database. UniqueIndexes maps an index
// name to the ordered list of Columns participating in it; the PRIMARY
// index is tracked on each Column instead (PrimaryKey) and never
// appears here.
type Table struct {
	Name          string
	Columns       []*Column
	UniqueIndexes map[string][]*Column
}

// ColumnByName returns the column with the given name, or nil.
func (t *Table) ColumnByName(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// FillableColumns returns Columns in declared order for which
// Fillable() is true.
func (t *Table) FillableColumns() []*Column {
	out := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if c.Fillable() {
			out = append(out, c)
		}
	}
	return out
}

// ReferencesGroupByTable groups this table's outbound FK edges by the
// referenced table name, the shape GenerationDriver recurses over to
// fill parent tables before this one. Self-references are omitted from
// the result — the driver treats them specially rather than recursing
// into itself.
func (t *Table) ReferencesGroupByTable() map[string][]*Column {
	out := make(map[string][]*Column)
	for _, c := range t.Columns {
		if c.ReferencedTo == nil {
			continue
		}
		if c.ReferencedTo.Table == t.Name {
			continue
		}
		out[c.ReferencedTo.Table] = append(out[c.ReferencedTo.Table], c)
	}
	return out
}

// DataType is the lowercase base SQL type vocabulary this engine
// recognizes (enumeration, MySQL-family only).
type DataType string

const (
	TypeTinyInt   DataType = "tinyint"
	TypeSmallInt  DataType = "smallint"
	TypeMediumInt DataType = "mediumint"
	TypeInt       DataType = "int"
	TypeBigInt    DataType = "bigint"
	TypeChar      DataType = "char"
	TypeVarchar   DataType = "varchar"
	TypeText      DataType = "text"
	TypeLongText  DataType = "longtext"
	TypeFloat     DataType = "float"
	TypeDecimal   DataType = "decimal"
	TypeEnum      DataType = "enum"
	TypeSet       DataType = "set"
	TypeDate      DataType = "date"
	TypeDateTime  DataType = "datetime"
	TypeTimestamp DataType = "timestamp"
	TypeUnknown   DataType = ""
)

// integerTypes holds the widths (in bits) of the signed MySQL integer
// types this engine bounds ValueFactory's random ranges by.
var integerTypes = map[DataType]int{
	TypeTinyInt:   8,
	TypeSmallInt:  16,
	TypeMediumInt: 24,
	TypeInt:       32,
	TypeBigInt:    64,
}

// IsInteger reports whether t is one of the bounded integer types.
func (t DataType) IsInteger() bool {
	_, ok := integerTypes[t]
	return ok
}

// BitWidth returns the signed bit width of an integer DataType, or 0 if
// t is not an integer type.
func (t DataType) BitWidth() int {
	return integerTypes[t]
}

// ColumnRef names a (table, column) pair — the unit both the inbound
// and outbound foreign-key edges on Column are expressed in.
type ColumnRef struct {
	Table  string
	Column string
}

// Column belongs to exactly one Table. The parsed type argument(s) are
// held as: for char/varchar a single Length; for float/decimal
// a Precision/Scale pair; for enum/set an ordered EnumValues list;
// absent for everything else.
type Column struct {
	Table *Table

	Name          string
	RawType       string
	Type          DataType
	Unsigned      bool
	Nullable      bool
	Default       *string
	OnUpdate      string
	AutoIncrement bool
	PrimaryKey    bool

	Length     int      // char/varchar only
	Precision  int      // float/decimal only
	Scale      int      // float/decimal only
	EnumValues []string // enum/set only

	// ReferencesFrom holds every (table, column) that names this
	// column as its FK target — the inbound edges.
	ReferencesFrom []ColumnRef

	// ReferencedTo is the single outbound FK edge this column points
	// at, or nil if this column is not itself a foreign key.
	ReferencedTo *ColumnRef
}

// Fillable reports whether this column is eligible to receive a
// synthesized value: not auto-increment, and neither its DEFAULT nor
// its ON UPDATE expression is CURRENT_TIMESTAMP.
func (c *Column) Fillable() bool {
	if c.AutoIncrement {
		return false
	}
	if c.Default != nil && isCurrentTimestamp(*c.Default) {
		return false
	}
	if isCurrentTimestamp(c.OnUpdate) {
		return false
	}
	return true
}

func isCurrentTimestamp(expr string) bool {
	return normalizeTimestampExpr(expr) == "current_timestamp"
}

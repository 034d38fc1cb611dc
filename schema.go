package tutordb

import (
	"fmt"
	"strings"
)

// ColumnType is a normalized column type name.
type ColumnType string

const (
	TypeInt     ColumnType = "INT"
	TypeReal    ColumnType = "REAL"
	TypeDecimal ColumnType = "DECIMAL"
	TypeText    ColumnType = "TEXT"
	TypeChar    ColumnType = "CHAR"
	TypeVarchar ColumnType = "VARCHAR"
	TypeBool    ColumnType = "BOOLEAN"
)

// normalizeType maps a declared type name (and its synonyms) onto the
// canonical type set.
func normalizeType(name string) (ColumnType, bool) {
	switch strings.ToUpper(name) {
	case "INT", "INTEGER":
		return TypeInt, true
	case "REAL", "FLOAT", "DOUBLE":
		return TypeReal, true
	case "DECIMAL":
		return TypeDecimal, true
	case "TEXT":
		return TypeText, true
	case "CHAR":
		return TypeChar, true
	case "VARCHAR":
		return TypeVarchar, true
	case "BOOLEAN":
		return TypeBool, true
	}
	return "", false
}

// RefAction is a referential action attached to a foreign key.
type RefAction uint

const (
	ActionRestrict RefAction = iota
	ActionCascade
	ActionSetNull
)

func (a RefAction) String() string {
	switch a {
	case ActionCascade:
		return "CASCADE"
	case ActionSetNull:
		return "SET NULL"
	}
	return "RESTRICT"
}

// Column describes one column of a table.
type Column struct {
	Name      string
	Type      ColumnType
	Length    int // CHAR / VARCHAR
	Precision int // DECIMAL
	Scale     int // DECIMAL
	Primary   bool
}

// UniqueKey is a named set of columns whose tuples must be unique.
type UniqueKey struct {
	Name    string
	Columns []string
}

// ForeignKey links local columns to the referenced columns of another table.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   RefAction
	OnUpdate   RefAction
}

// PKOrigin records why a schema's primary key was chosen.
type PKOrigin uint

const (
	PKNone PKOrigin = iota
	PKDeclared
	PKColumnFlag
	PKExistingID
	PKSynthesized
)

// Schema describes one table. It is built by DDL execution and never
// modified afterwards; there is no ALTER TABLE.
type Schema struct {
	Name          string
	Columns       []Column
	PrimaryKey    []string
	PKOrigin      PKOrigin
	AutoIncrement bool
	UniqueKeys    []UniqueKey
	ForeignKeys   []ForeignKey
	IsView        bool
}

// Column returns the column with the given name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the schema's column names in declaration order.
func (s *Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

func (c Column) typeSQL() string {
	switch c.Type {
	case TypeChar, TypeVarchar:
		return fmt.Sprintf("%s(%d)", c.Type, c.Length)
	case TypeDecimal:
		return fmt.Sprintf("%s(%d, %d)", c.Type, c.Precision, c.Scale)
	}
	return string(c.Type)
}

// String regenerates a CREATE TABLE statement for the schema. Column order
// is significant and preserved.
func (s *Schema) String() string {
	var parts []string
	inlinePK := len(s.PrimaryKey) == 1
	for _, c := range s.Columns {
		def := c.Name + " " + c.typeSQL()
		if inlinePK && c.Name == s.PrimaryKey[0] {
			def += " PRIMARY KEY"
		}
		parts = append(parts, def)
	}
	if !inlinePK && len(s.PrimaryKey) > 0 {
		parts = append(parts, "PRIMARY KEY ("+strings.Join(s.PrimaryKey, ", ")+")")
	}
	for _, u := range s.UniqueKeys {
		parts = append(parts, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", u.Name, strings.Join(u.Columns, ", ")))
	}
	for _, fk := range s.ForeignKeys {
		clause := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
			fk.Name, strings.Join(fk.Columns, ", "), fk.RefTable, strings.Join(fk.RefColumns, ", "))
		if fk.OnDelete != ActionRestrict {
			clause += " ON DELETE " + fk.OnDelete.String()
		}
		if fk.OnUpdate != ActionRestrict {
			clause += " ON UPDATE " + fk.OnUpdate.String()
		}
		parts = append(parts, clause)
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", s.Name, strings.Join(parts, ", "))
}

// Row is one record: a mapping from column name to scalar value. Rows are
// value objects; mutation paths copy before writing.
type Row map[string]Value

func (r Row) clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// keyOf extracts the tuple of values at the given columns.
func (r Row) keyOf(cols []string) []Value {
	vals := make([]Value, len(cols))
	for i, c := range cols {
		vals[i] = r[c]
	}
	return vals
}

// Database is the root aggregate: every table's schema and rows, plus the
// UI-facing active table hint. A Database value is treated as an immutable
// snapshot; statements build and return a new one.
type Database struct {
	Active  string
	Schemas map[string]*Schema
	Rows    map[string][]Row
}

func NewDatabase() *Database {
	return &Database{
		Schemas: map[string]*Schema{},
		Rows:    map[string][]Row{},
	}
}

// clone makes a shallow snapshot copy: the maps are fresh, the schemas and
// row slices are shared until a statement replaces a touched table.
func (db *Database) clone() *Database {
	out := &Database{
		Active:  db.Active,
		Schemas: make(map[string]*Schema, len(db.Schemas)),
		Rows:    make(map[string][]Row, len(db.Rows)),
	}
	for name, s := range db.Schemas {
		out.Schemas[name] = s
	}
	for name, rows := range db.Rows {
		out.Rows[name] = rows
	}
	return out
}

// table resolves a table or view by name.
func (db *Database) table(name string) (*Schema, []Row, error) {
	s, ok := db.Schemas[name]
	if !ok {
		return nil, nil, Errorf(ErrUnknownEntity, "no such table: %s", name)
	}
	return s, db.Rows[name], nil
}

// checkInvariant verifies the schema/row-map parity invariant that must
// hold after every mutation.
func (db *Database) checkInvariant() error {
	for name := range db.Schemas {
		if _, ok := db.Rows[name]; !ok {
			return Errorf(ErrUnknownEntity, "table %s has a schema but no row store", name)
		}
	}
	for name := range db.Rows {
		if _, ok := db.Schemas[name]; !ok {
			return Errorf(ErrUnknownEntity, "table %s has rows but no schema", name)
		}
	}
	return nil
}

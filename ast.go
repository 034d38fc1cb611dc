package tutordb

/*
---------
Statement
---------
*/

type StatementKind uint

const (
	SelectKind StatementKind = iota
	InsertKind
	UpdateKind
	DeleteKind
	CreateViewKind
	DropTableKind
)

// Statement is the parse result of one non-DDL-batch statement. CREATE
// TABLE batches are parsed by ParseCreateTables and never pass through here.
type Statement struct {
	Select     SelectStatement
	Insert     InsertStatement
	Update     UpdateStatement
	Delete     DeleteStatement
	CreateView CreateViewStatement
	DropTable  DropTableStatement
	Kind       StatementKind
}

/*
----------
Conditions
----------
*/

// Operand is one side of a comparison: either a column reference resolved
// against the current row, or a literal value.
type Operand struct {
	IsIdent bool
	Ident   string
	Lit     Value
}

type CondKind uint

const (
	CondAnd CondKind = iota
	CondOr
	CondCompare
	CondLike
	CondIn
	CondBetween
	CondIsNull
)

// Cond is one node of a boolean condition tree.
type Cond struct {
	Kind CondKind

	// CondAnd / CondOr
	Left  *Cond
	Right *Cond

	// Comparison forms; Column is the left-hand identifier.
	Column  string
	Op      string  // CondCompare: = != <> > < >= <=
	Operand Operand // CondCompare right-hand side

	Pattern string    // CondLike
	List    []Operand // CondIn
	Negate  bool      // CondIn: NOT IN; CondIsNull: IS NOT NULL

	Low  Operand // CondBetween
	High Operand // CondBetween
}

// SetExpr is the restricted arithmetic expression of an UPDATE SET clause:
// a single operand, or `A op B` with op one of + - * /.
type SetExpr struct {
	Op string
	A  Operand
	B  Operand
}

/*
----------------
Select statement
----------------
*/

type SelectItemKind uint

const (
	StarItem SelectItemKind = iota
	AliasStarItem
	AggregateItem
	ColumnItem
)

type SelectItem struct {
	Kind       SelectItemKind
	TableAlias string // AliasStarItem
	Func       string // AggregateItem: count sum avg min max
	Arg        string // AggregateItem argument: * or a column name
	Column     string // ColumnItem
	Alias      string // AS alias; empty when not given
}

// Name returns the output column name for the item.
func (it SelectItem) Name() string {
	if it.Alias != "" {
		return it.Alias
	}
	if it.Kind == AggregateItem {
		return it.Func + "(" + it.Arg + ")"
	}
	return it.Column
}

type OrderItem struct {
	Column string
	Desc   bool
}

type SelectStatement struct {
	Table    string
	Alias    string
	Items    []SelectItem
	Distinct bool
	Where    *Cond
	GroupBy  []string
	Having   *Cond
	OrderBy  []OrderItem
	Limit    int // -1 when absent
	Offset   int // -1 when absent
}

/*
-------------------
Mutation statements
-------------------
*/

type InsertStatement struct {
	Table   string
	Columns []string // empty: schema column order
	Tuples  [][]Value
}

type SetItem struct {
	Column string
	Expr   SetExpr
}

type UpdateStatement struct {
	Table string
	Sets  []SetItem
	Where *Cond
}

type DeleteStatement struct {
	Table string
	Where *Cond
}

/*
--------------
DDL statements
--------------
*/

type CreateTableStatement struct {
	Schema      *Schema
	IfNotExists bool
}

type CreateViewStatement struct {
	Name   string
	Select SelectStatement
}

type DropTableStatement struct {
	Name     string
	IfExists bool
}

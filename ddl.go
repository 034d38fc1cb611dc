package tutordb

import (
	"strings"
	"time"

	"github.com/goombaio/namegenerator"
)

// constraintNames names anonymous UNIQUE and FOREIGN KEY constraints so
// error messages can cite them.
var constraintNames = namegenerator.NewNameGenerator(time.Now().UnixNano())

func anonConstraintName(prefix string) string {
	return prefix + "_" + constraintNames.Generate()
}

// ParseCreateTables parses one or more semicolon-separated CREATE TABLE
// statements. Every statement must parse and validate before any of them
// is committed; a failure anywhere aborts the whole batch.
func ParseCreateTables(sql string) ([]CreateTableStatement, error) {
	var stmts []CreateTableStatement
	lexer := NewLexer()
	for _, piece := range strings.Split(sql, ";") {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		p := Parser{tokens: lexer.Scan(piece)}
		if !p.matchKeyword("create table") {
			return nil, p.errNear("expected CREATE TABLE")
		}
		stmt, err := p.parseCreateTable()
		if err != nil {
			return nil, err
		}
		if err := p.expectEnd(); err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if len(stmts) == 0 {
		return nil, Errorf(ErrSyntax, "empty CREATE TABLE statement")
	}
	return stmts, nil
}

func (p *Parser) parseCreateTable() (CreateTableStatement, error) {
	var emptyStatement CreateTableStatement

	stmt := CreateTableStatement{}
	stmt.IfNotExists = p.matchKeyword("if not exists")

	name, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected table name after CREATE TABLE")
	}
	schema := &Schema{Name: name.Text}

	if _, ok := p.matchToken(LeftParenthesis); !ok {
		return emptyStatement, p.errNear("expected column definitions after table name")
	}

	for {
		if _, ok := p.matchToken(RightParenthesis); ok {
			break
		}

		switch {
		case p.matchKeyword("primary key"):
			cols, err := p.parseColumnNameList("PRIMARY KEY")
			if err != nil {
				return emptyStatement, err
			}
			if len(schema.PrimaryKey) > 0 {
				return emptyStatement, Errorf(ErrSyntax, "table %s declares more than one PRIMARY KEY", schema.Name)
			}
			schema.PrimaryKey = cols
			schema.PKOrigin = PKDeclared

		case p.matchKeyword("constraint"):
			cname, ok := p.matchToken(Identifier)
			if !ok {
				return emptyStatement, p.errNear("expected constraint name after CONSTRAINT")
			}
			switch {
			case p.matchKeyword("unique"):
				cols, err := p.parseColumnNameList("UNIQUE")
				if err != nil {
					return emptyStatement, err
				}
				schema.UniqueKeys = append(schema.UniqueKeys, UniqueKey{Name: cname.Text, Columns: cols})
			case p.matchKeyword("foreign key"):
				fk, err := p.parseForeignKey(cname.Text)
				if err != nil {
					return emptyStatement, err
				}
				schema.ForeignKeys = append(schema.ForeignKeys, fk)
			default:
				return emptyStatement, p.errNear("expected UNIQUE or FOREIGN KEY after constraint name")
			}

		case p.matchKeyword("unique"):
			cols, err := p.parseColumnNameList("UNIQUE")
			if err != nil {
				return emptyStatement, err
			}
			schema.UniqueKeys = append(schema.UniqueKeys, UniqueKey{Name: anonConstraintName("uq"), Columns: cols})

		case p.matchKeyword("foreign key"):
			fk, err := p.parseForeignKey(anonConstraintName("fk"))
			if err != nil {
				return emptyStatement, err
			}
			schema.ForeignKeys = append(schema.ForeignKeys, fk)

		default:
			column, err := p.parseColumnDefinition(schema)
			if err != nil {
				return emptyStatement, err
			}
			schema.Columns = append(schema.Columns, column)
		}

		p.matchToken(Comma)
	}

	if err := validateCreateTable(schema); err != nil {
		return emptyStatement, err
	}
	resolvePrimaryKey(schema)
	stmt.Schema = schema
	return stmt, nil
}

func (p *Parser) parseColumnDefinition(schema *Schema) (Column, error) {
	name, ok := p.matchToken(Identifier)
	if !ok {
		return Column{}, p.errNear("expected column name")
	}
	typeTok, ok := p.matchToken(Keyword)
	if !ok {
		return Column{}, p.errNear("expected column type after '" + name.Text + "'")
	}
	colType, ok := normalizeType(typeTok.Text)
	if !ok {
		return Column{}, Errorf(ErrSyntax, "unknown column type %q for column %s", typeTok.Text, name.Text)
	}

	column := Column{Name: name.Text, Type: colType}

	var params []int
	if _, ok := p.matchToken(LeftParenthesis); ok {
		for {
			if _, ok := p.matchToken(RightParenthesis); ok {
				break
			}
			n, err := p.parseIntToken("type parameter")
			if err != nil {
				return Column{}, err
			}
			params = append(params, n)
			p.matchToken(Comma)
		}
	}

	switch colType {
	case TypeChar, TypeVarchar:
		if len(params) != 1 {
			return Column{}, Errorf(ErrSyntax, "%s column %s requires a length, e.g. %s(20)", colType, name.Text, colType)
		}
		column.Length = params[0]
	case TypeDecimal:
		if len(params) != 2 {
			return Column{}, Errorf(ErrSyntax, "DECIMAL column %s requires precision and scale, e.g. DECIMAL(10, 2)", name.Text)
		}
		column.Precision, column.Scale = params[0], params[1]
	default:
		if len(params) > 0 {
			return Column{}, Errorf(ErrSyntax, "type %s of column %s accepts no parameters", colType, name.Text)
		}
	}

	for {
		switch {
		case p.matchKeyword("primary key"):
			column.Primary = true
		case p.matchKeyword("unique"):
			schema.UniqueKeys = append(schema.UniqueKeys, UniqueKey{
				Name:    anonConstraintName("uq"),
				Columns: []string{column.Name},
			})
		default:
			return column, nil
		}
	}
}

func (p *Parser) parseForeignKey(name string) (ForeignKey, error) {
	fk := ForeignKey{Name: name, OnDelete: ActionRestrict, OnUpdate: ActionRestrict}

	cols, err := p.parseColumnNameList("FOREIGN KEY")
	if err != nil {
		return fk, err
	}
	fk.Columns = cols

	if !p.matchKeyword("references") {
		return fk, p.errNear("expected REFERENCES")
	}
	refTable, ok := p.matchToken(Identifier)
	if !ok {
		return fk, p.errNear("expected referenced table after REFERENCES")
	}
	fk.RefTable = refTable.Text

	refCols, err := p.parseColumnNameList("REFERENCES")
	if err != nil {
		return fk, err
	}
	fk.RefColumns = refCols

	if len(fk.Columns) != len(fk.RefColumns) {
		return fk, Errorf(ErrSyntax, "foreign key %s: column count mismatch (%d local, %d referenced)",
			fk.Name, len(fk.Columns), len(fk.RefColumns))
	}

	for {
		switch {
		case p.matchKeyword("on delete"):
			action, err := p.parseRefAction()
			if err != nil {
				return fk, err
			}
			fk.OnDelete = action
		case p.matchKeyword("on update"):
			action, err := p.parseRefAction()
			if err != nil {
				return fk, err
			}
			fk.OnUpdate = action
		default:
			return fk, nil
		}
	}
}

func (p *Parser) parseRefAction() (RefAction, error) {
	switch {
	case p.matchKeyword("restrict"):
		return ActionRestrict, nil
	case p.matchKeyword("cascade"):
		return ActionCascade, nil
	case p.matchKeyword("set null"):
		return ActionSetNull, nil
	}
	return ActionRestrict, p.errNear("expected RESTRICT, CASCADE or SET NULL")
}

func (p *Parser) parseColumnNameList(clause string) ([]string, error) {
	if _, ok := p.matchToken(LeftParenthesis); !ok {
		return nil, p.errNear("expected '(' after " + clause)
	}
	var cols []string
	for {
		if _, ok := p.matchToken(RightParenthesis); ok {
			break
		}
		name, ok := p.matchToken(Identifier)
		if !ok {
			return nil, p.errNear("expected column name in " + clause + " list")
		}
		cols = append(cols, name.Text)
		p.matchToken(Comma)
	}
	if len(cols) == 0 {
		return nil, Errorf(ErrSyntax, "%s list is empty", clause)
	}
	return cols, nil
}

func validateCreateTable(schema *Schema) error {
	seen := map[string]bool{}
	for _, c := range schema.Columns {
		if seen[c.Name] {
			return Errorf(ErrSyntax, "duplicate column %s in table %s", c.Name, schema.Name)
		}
		seen[c.Name] = true
	}
	for _, col := range schema.PrimaryKey {
		if !seen[col] {
			return Errorf(ErrSyntax, "primary key names unknown column %s", col)
		}
	}
	for _, u := range schema.UniqueKeys {
		for _, col := range u.Columns {
			if !seen[col] {
				return Errorf(ErrSyntax, "unique constraint %s names unknown column %s", u.Name, col)
			}
		}
	}
	for _, fk := range schema.ForeignKeys {
		for _, col := range fk.Columns {
			if !seen[col] {
				return Errorf(ErrSyntax, "foreign key %s names unknown column %s", fk.Name, col)
			}
		}
	}
	return nil
}

// resolvePrimaryKey picks the table's primary key: an explicit table-level
// declaration wins; else columns flagged PRIMARY KEY; else an existing `id`
// column; else a synthetic integer `id` injected at the front. The origin
// of the choice is recorded on the schema.
func resolvePrimaryKey(schema *Schema) {
	if schema.PKOrigin == PKDeclared {
		return
	}

	var flagged []string
	for _, c := range schema.Columns {
		if c.Primary {
			flagged = append(flagged, c.Name)
		}
	}
	if len(flagged) > 0 {
		schema.PrimaryKey = flagged
		schema.PKOrigin = PKColumnFlag
		return
	}

	if id, ok := schema.Column("id"); ok {
		schema.PrimaryKey = []string{"id"}
		schema.PKOrigin = PKExistingID
		schema.AutoIncrement = id.Type == TypeInt
		return
	}

	schema.Columns = append([]Column{{Name: "id", Type: TypeInt}}, schema.Columns...)
	schema.PrimaryKey = []string{"id"}
	schema.PKOrigin = PKSynthesized
	schema.AutoIncrement = true
}

/*
-------------
DDL execution
-------------
*/

// runCreateTables commits a parsed CREATE TABLE batch against a snapshot.
func runCreateTables(db *Database, stmts []CreateTableStatement) (*Database, QueryResult, error) {
	next := db.clone()
	created := 0
	for _, stmt := range stmts {
		if _, exists := next.Schemas[stmt.Schema.Name]; exists {
			if stmt.IfNotExists {
				continue
			}
			return db, QueryResult{}, Errorf(ErrConstraint, "table %s already exists", stmt.Schema.Name)
		}
		next.Schemas[stmt.Schema.Name] = stmt.Schema
		next.Rows[stmt.Schema.Name] = []Row{}
		next.Active = stmt.Schema.Name
		created++
	}
	return next, messageResult("created "+pluralTables(created), int64(created)), nil
}

// runCreateView executes the view's SELECT once and stores the result as a
// materialized pseudo-table. It is never re-evaluated.
func runCreateView(db *Database, stmt CreateViewStatement) (*Database, QueryResult, error) {
	if _, exists := db.Schemas[stmt.Name]; exists {
		return db, QueryResult{}, Errorf(ErrConstraint, "table %s already exists", stmt.Name)
	}
	result, err := runSelect(db, stmt.Select)
	if err != nil {
		return db, QueryResult{}, err
	}

	schema := &Schema{Name: stmt.Name, IsView: true}
	for _, col := range result.Columns {
		var vals []Value
		for _, row := range result.Rows {
			vals = append(vals, row[col])
		}
		schema.Columns = append(schema.Columns, Column{Name: col, Type: inferColumnType(vals)})
	}

	next := db.clone()
	next.Schemas[stmt.Name] = schema
	next.Rows[stmt.Name] = result.Rows
	next.Active = stmt.Name
	return next, messageResult("created view "+stmt.Name, int64(len(result.Rows))), nil
}

// inferColumnType derives a column type from the values actually present:
// all booleans make BOOLEAN, all integral numbers make INT, all numbers
// make REAL, anything else is TEXT.
func inferColumnType(vals []Value) ColumnType {
	allBool, allNum, allInt := true, true, true
	seen := false
	for _, v := range vals {
		if v.IsNull() {
			continue
		}
		seen = true
		if v.Kind != KindBool {
			allBool = false
		}
		if !v.IsNumeric() || v.Kind == KindBool {
			allNum = false
			allInt = false
		} else if n := v.Num(); n != float64(int64(n)) {
			allInt = false
		}
	}
	switch {
	case !seen:
		return TypeText
	case allBool:
		return TypeBool
	case allNum && allInt:
		return TypeInt
	case allNum:
		return TypeReal
	}
	return TypeText
}

// runDropTable removes a table unless another table's foreign key still
// references it.
func runDropTable(db *Database, stmt DropTableStatement) (*Database, QueryResult, error) {
	if _, ok := db.Schemas[stmt.Name]; !ok {
		if stmt.IfExists {
			return db, messageResult("no such table "+stmt.Name+", nothing dropped", 0), nil
		}
		return db, QueryResult{}, Errorf(ErrUnknownEntity, "no such table: %s", stmt.Name)
	}
	for _, other := range db.Schemas {
		if other.Name == stmt.Name {
			continue
		}
		for _, fk := range other.ForeignKeys {
			if fk.RefTable == stmt.Name {
				return db, QueryResult{}, Errorf(ErrReferentialAction,
					"cannot drop %s: referenced by foreign key %s on table %s", stmt.Name, fk.Name, other.Name)
			}
		}
	}
	next := db.clone()
	delete(next.Schemas, stmt.Name)
	delete(next.Rows, stmt.Name)
	if next.Active == stmt.Name {
		next.Active = ""
	}
	return next, messageResult("dropped table "+stmt.Name, 1), nil
}

func pluralTables(n int) string {
	if n == 1 {
		return "1 table"
	}
	return strings.Join([]string{itoa(n), "tables"}, " ")
}

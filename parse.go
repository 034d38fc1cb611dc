package tutordb

import (
	"strconv"
	"strings"
)

type Parser struct {
	tokens []Token
	cursor int
}

func NewParser() Parser {
	return Parser{}
}

// Parse consumes one statement's token stream. CREATE TABLE batches are
// handled separately by ParseCreateTables since a single call may carry
// several semicolon-separated statements.
func (p *Parser) Parse(tokens []Token) (Statement, error) {
	p.tokens = tokens
	p.cursor = 0

	switch {
	case p.matchKeyword("select"):
		stmt, err := p.parseSelect()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Select: stmt, Kind: SelectKind}, p.expectEnd()

	case p.matchKeyword("insert into"):
		stmt, err := p.parseInsert()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Insert: stmt, Kind: InsertKind}, p.expectEnd()

	case p.matchKeyword("update"):
		stmt, err := p.parseUpdate()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Update: stmt, Kind: UpdateKind}, p.expectEnd()

	case p.matchKeyword("delete from"):
		stmt, err := p.parseDelete()
		if err != nil {
			return Statement{}, err
		}
		return Statement{Delete: stmt, Kind: DeleteKind}, p.expectEnd()

	case p.matchKeyword("create view"):
		stmt, err := p.parseCreateView()
		if err != nil {
			return Statement{}, err
		}
		return Statement{CreateView: stmt, Kind: CreateViewKind}, p.expectEnd()

	case p.matchKeyword("drop table"):
		stmt, err := p.parseDropTable()
		if err != nil {
			return Statement{}, err
		}
		return Statement{DropTable: stmt, Kind: DropTableKind}, p.expectEnd()
	}

	return Statement{}, Errorf(ErrUnsupported,
		"unsupported statement; supported: CREATE TABLE, CREATE VIEW, DROP TABLE, INSERT, UPDATE, DELETE, SELECT")
}

/*
------
SELECT
------
*/

func (p *Parser) parseSelect() (SelectStatement, error) {
	var emptyStatement SelectStatement

	// JOIN is recognized but deliberately unsupported; reject it anywhere
	// in the statement rather than misparsing around it.
	for _, tok := range p.tokens[p.cursor:] {
		if tok.Type == Keyword && strings.EqualFold(tok.Text, "join") {
			return emptyStatement, Errorf(ErrUnsupported, "JOIN is not supported; queries read a single table")
		}
	}

	stmt := SelectStatement{Limit: -1, Offset: -1}
	stmt.Distinct = p.matchKeyword("distinct")

	items, err := p.parseSelectItems()
	if err != nil {
		return emptyStatement, err
	}
	stmt.Items = items

	if !p.matchKeyword("from") {
		return emptyStatement, p.errNear("expected FROM after select items")
	}
	table, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected table name after FROM")
	}
	stmt.Table = table.Text
	if alias, ok := p.matchToken(Identifier); ok {
		stmt.Alias = alias.Text
	}

	if p.matchKeyword("where") {
		stmt.Where, err = p.parseOr()
		if err != nil {
			return emptyStatement, err
		}
	}

	if p.matchKeyword("group by") {
		for {
			col, ok := p.matchColumnRef()
			if !ok {
				return emptyStatement, p.errNear("expected column after GROUP BY")
			}
			stmt.GroupBy = append(stmt.GroupBy, col)
			if _, ok := p.matchToken(Comma); !ok {
				break
			}
		}
	}

	if p.matchKeyword("having") {
		stmt.Having, err = p.parseOr()
		if err != nil {
			return emptyStatement, err
		}
	}

	if p.matchKeyword("order by") {
		for {
			col, ok := p.matchColumnRef()
			if !ok {
				return emptyStatement, p.errNear("expected column after ORDER BY")
			}
			item := OrderItem{Column: col}
			switch {
			case p.matchKeyword("desc"):
				item.Desc = true
			case p.matchKeyword("asc"):
			}
			stmt.OrderBy = append(stmt.OrderBy, item)
			if _, ok := p.matchToken(Comma); !ok {
				break
			}
		}
	}

	if p.matchKeyword("limit") {
		first, err := p.parseIntToken("LIMIT")
		if err != nil {
			return emptyStatement, err
		}
		switch {
		case p.matchKeyword("offset"):
			// LIMIT n OFFSET m
			m, err := p.parseIntToken("OFFSET")
			if err != nil {
				return emptyStatement, err
			}
			stmt.Limit, stmt.Offset = first, m
		default:
			if _, ok := p.matchToken(Comma); ok {
				// LIMIT m, n — MySQL form, offset first
				n, err := p.parseIntToken("LIMIT")
				if err != nil {
					return emptyStatement, err
				}
				stmt.Limit, stmt.Offset = n, first
			} else {
				stmt.Limit = first
			}
		}
	}

	return stmt, nil
}

func (p *Parser) parseSelectItems() ([]SelectItem, error) {
	var items []SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if _, ok := p.matchToken(Comma); !ok {
			break
		}
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if _, ok := p.matchToken(Wildcard); ok {
		return SelectItem{Kind: StarItem}, nil
	}

	ident, ok := p.matchToken(Identifier)
	if !ok {
		return SelectItem{}, p.errNear("expected select item")
	}

	// alias.* or alias.col
	if _, ok := p.matchToken(Dot); ok {
		if _, ok := p.matchToken(Wildcard); ok {
			return SelectItem{Kind: AliasStarItem, TableAlias: ident.Text}, nil
		}
		col, ok := p.matchToken(Identifier)
		if !ok {
			return SelectItem{}, p.errNear("expected column after '" + ident.Text + ".'")
		}
		item := SelectItem{Kind: ColumnItem, Column: col.Text}
		item.Alias = p.matchAlias()
		return item, nil
	}

	// Aggregate call
	if isAggregateName(ident.Text) {
		if _, ok := p.matchToken(LeftParenthesis); ok {
			item := SelectItem{Kind: AggregateItem, Func: strings.ToLower(ident.Text)}
			if _, ok := p.matchToken(Wildcard); ok {
				item.Arg = "*"
			} else if col, ok := p.matchColumnRef(); ok {
				item.Arg = col
			} else {
				return SelectItem{}, p.errNear("expected column or * in " + item.Func + "()")
			}
			if _, ok := p.matchToken(RightParenthesis); !ok {
				return SelectItem{}, p.errNear("expected ')' after " + item.Func + " argument")
			}
			item.Alias = p.matchAlias()
			return item, nil
		}
	}

	item := SelectItem{Kind: ColumnItem, Column: ident.Text}
	item.Alias = p.matchAlias()
	return item, nil
}

func (p *Parser) matchAlias() string {
	if p.matchKeyword("as") {
		if alias, ok := p.matchToken(Identifier); ok {
			return alias.Text
		}
	}
	return ""
}

func isAggregateName(name string) bool {
	switch strings.ToLower(name) {
	case "count", "sum", "avg", "min", "max":
		return true
	}
	return false
}

/*
------
INSERT
------
*/

func (p *Parser) parseInsert() (InsertStatement, error) {
	var emptyStatement InsertStatement

	table, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected table name after INSERT INTO")
	}
	stmt := InsertStatement{Table: table.Text}

	if _, ok := p.matchToken(LeftParenthesis); ok {
		for {
			if _, ok := p.matchToken(RightParenthesis); ok {
				break
			}
			column, ok := p.matchToken(Identifier)
			if !ok {
				return emptyStatement, p.errNear("expected column name in insert column list")
			}
			stmt.Columns = append(stmt.Columns, column.Text)
			p.matchToken(Comma)
		}
	}

	if !p.matchKeyword("values") {
		return emptyStatement, p.errNear("expected VALUES")
	}

	for {
		if _, ok := p.matchToken(LeftParenthesis); !ok {
			return emptyStatement, p.errNear("expected '(' before value tuple")
		}
		var tuple []Value
		for {
			if _, ok := p.matchToken(RightParenthesis); ok {
				break
			}
			lit, ok := p.matchLiteral()
			if !ok {
				return emptyStatement, p.errNear("expected literal in VALUES")
			}
			tuple = append(tuple, lit)
			p.matchToken(Comma)
		}
		stmt.Tuples = append(stmt.Tuples, tuple)
		if _, ok := p.matchToken(Comma); !ok {
			break
		}
	}

	return stmt, nil
}

/*
------
UPDATE
------
*/

func (p *Parser) parseUpdate() (UpdateStatement, error) {
	var emptyStatement UpdateStatement

	table, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected table name after UPDATE")
	}
	stmt := UpdateStatement{Table: table.Text}

	if !p.matchKeyword("set") {
		return emptyStatement, p.errNear("expected SET")
	}
	for {
		column, ok := p.matchToken(Identifier)
		if !ok {
			return emptyStatement, p.errNear("expected column name in SET clause")
		}
		if op, ok := p.matchToken(Operator); !ok || op.Text != "=" {
			return emptyStatement, p.errNear("expected '=' after '" + column.Text + "'")
		}
		expr, err := p.parseSetExpr()
		if err != nil {
			return emptyStatement, err
		}
		stmt.Sets = append(stmt.Sets, SetItem{Column: column.Text, Expr: expr})
		if _, ok := p.matchToken(Comma); !ok {
			break
		}
	}

	if p.matchKeyword("where") {
		where, err := p.parseOr()
		if err != nil {
			return emptyStatement, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

/*
------
DELETE
------
*/

func (p *Parser) parseDelete() (DeleteStatement, error) {
	var emptyStatement DeleteStatement

	table, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected table name after DELETE FROM")
	}
	stmt := DeleteStatement{Table: table.Text}

	if p.matchKeyword("where") {
		where, err := p.parseOr()
		if err != nil {
			return emptyStatement, err
		}
		stmt.Where = where
	}

	return stmt, nil
}

/*
-----------
CREATE VIEW
-----------
*/

func (p *Parser) parseCreateView() (CreateViewStatement, error) {
	var emptyStatement CreateViewStatement

	name, ok := p.matchToken(Identifier)
	if !ok {
		return emptyStatement, p.errNear("expected view name after CREATE VIEW")
	}
	if !p.matchKeyword("as") {
		return emptyStatement, p.errNear("expected AS after view name")
	}
	if !p.matchKeyword("select") {
		return emptyStatement, p.errNear("expected SELECT after AS")
	}
	sel, err := p.parseSelect()
	if err != nil {
		return emptyStatement, err
	}
	return CreateViewStatement{Name: name.Text, Select: sel}, nil
}

/*
----------
DROP TABLE
----------
*/

func (p *Parser) parseDropTable() (DropTableStatement, error) {
	stmt := DropTableStatement{}
	stmt.IfExists = p.matchKeyword("if exists")
	name, ok := p.matchToken(Identifier)
	if !ok {
		return DropTableStatement{}, p.errNear("expected table name after DROP TABLE")
	}
	stmt.Name = name.Text
	return stmt, nil
}

/*
------------
Token cursor
------------
*/

// matchKeyword consumes one or more keyword tokens matching the given
// space-separated, case-insensitive phrase.
func (p *Parser) matchKeyword(value string) bool {
	words := strings.Split(value, " ")
	if p.cursor+len(words) > len(p.tokens) {
		return false
	}
	for i, word := range words {
		tok := p.tokens[p.cursor+i]
		if tok.Type != Keyword || !strings.EqualFold(tok.Text, word) {
			return false
		}
	}
	p.cursor += len(words)
	return true
}

func (p *Parser) matchToken(tokenTypes ...TokenType) (Token, bool) {
	if p.cursor >= len(p.tokens) {
		return Token{}, false
	}
	for _, tokenType := range tokenTypes {
		if p.tokens[p.cursor].Type == tokenType {
			token := p.tokens[p.cursor]
			p.cursor++
			return token, true
		}
	}
	return Token{}, false
}

func (p *Parser) peekToken(tokenType TokenType) (Token, bool) {
	return p.peekTokenAt(0, tokenType)
}

func (p *Parser) peekTokenAt(offset int, tokenType TokenType) (Token, bool) {
	if p.cursor+offset >= len(p.tokens) {
		return Token{}, false
	}
	if p.tokens[p.cursor+offset].Type != tokenType {
		return Token{}, false
	}
	return p.tokens[p.cursor+offset], true
}

func (p *Parser) parseIntToken(clause string) (int, error) {
	tok, ok := p.matchToken(Number)
	if !ok {
		return 0, p.errNear("expected integer after " + clause)
	}
	n, err := strconv.Atoi(tok.Text)
	if err != nil {
		return 0, Errorf(ErrSyntax, "expected integer after %s, got %q", clause, tok.Text)
	}
	return n, nil
}

// expectEnd verifies the whole statement was consumed, allowing a trailing
// semicolon.
func (p *Parser) expectEnd() error {
	p.matchToken(Semicolon)
	if p.cursor < len(p.tokens) {
		return p.errNear("unexpected input")
	}
	return nil
}

// errNear builds a syntax error naming the offending fragment.
func (p *Parser) errNear(msg string) error {
	at := "end of statement"
	if p.cursor < len(p.tokens) {
		at = "'" + p.tokens[p.cursor].Text + "'"
	}
	return Errorf(ErrSyntax, "%s near %s", msg, at)
}

func numberValue(text string) Value {
	if strings.Contains(text, ".") {
		f, _ := strconv.ParseFloat(text, 64)
		return RealValue(f)
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(text, 64)
		return RealValue(f)
	}
	return IntValue(n)
}

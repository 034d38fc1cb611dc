package tutordb

import (
	"math"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

/*
----------------
Condition parser
----------------

Grammar, lowest to highest precedence:

	Or      := And (OR And)*
	And     := Primary (AND Primary)*
	Primary := '(' Or ')' | Comparison
*/

func (p *Parser) parseOr() (*Cond, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("or") {
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &Cond{Kind: CondOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (*Cond, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.matchKeyword("and") {
		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		left = &Cond{Kind: CondAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (*Cond, error) {
	if _, ok := p.matchToken(LeftParenthesis); ok {
		cond, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, ok := p.matchToken(RightParenthesis); !ok {
			return nil, p.errNear("expected ')'")
		}
		return cond, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (*Cond, error) {
	column, ok := p.matchColumnRef()
	if !ok {
		return nil, p.errNear("expected column reference")
	}

	switch {
	case p.matchKeyword("like"):
		pattern, ok := p.matchToken(String)
		if !ok {
			return nil, p.errNear("expected pattern after LIKE")
		}
		return &Cond{Kind: CondLike, Column: column, Pattern: pattern.Text}, nil

	case p.matchKeyword("not"):
		if !p.matchKeyword("in") {
			return nil, p.errNear("expected IN after NOT")
		}
		list, err := p.parseOperandList()
		if err != nil {
			return nil, err
		}
		return &Cond{Kind: CondIn, Column: column, List: list, Negate: true}, nil

	case p.matchKeyword("in"):
		list, err := p.parseOperandList()
		if err != nil {
			return nil, err
		}
		return &Cond{Kind: CondIn, Column: column, List: list}, nil

	case p.matchKeyword("between"):
		low, ok := p.matchOperand()
		if !ok {
			return nil, p.errNear("expected lower bound after BETWEEN")
		}
		if !p.matchKeyword("and") {
			return nil, p.errNear("expected AND in BETWEEN")
		}
		high, ok := p.matchOperand()
		if !ok {
			return nil, p.errNear("expected upper bound after BETWEEN")
		}
		return &Cond{Kind: CondBetween, Column: column, Low: low, High: high}, nil

	case p.matchKeyword("is"):
		negate := p.matchKeyword("not")
		if !p.matchKeyword("null") {
			return nil, p.errNear("expected NULL after IS")
		}
		return &Cond{Kind: CondIsNull, Column: column, Negate: negate}, nil
	}

	op, ok := p.matchToken(Operator)
	if !ok || !isComparisonOp(op.Text) {
		return nil, p.errNear("expected comparison operator after '" + column + "'")
	}
	operand, ok := p.matchOperand()
	if !ok {
		return nil, p.errNear("expected value after '" + op.Text + "'")
	}
	return &Cond{Kind: CondCompare, Column: column, Op: op.Text, Operand: operand}, nil
}

func (p *Parser) parseOperandList() ([]Operand, error) {
	if _, ok := p.matchToken(LeftParenthesis); !ok {
		return nil, p.errNear("expected '(' after IN")
	}
	var list []Operand
	for {
		if _, ok := p.matchToken(RightParenthesis); ok {
			break
		}
		operand, ok := p.matchOperand()
		if !ok {
			return nil, p.errNear("expected value in IN list")
		}
		list = append(list, operand)
		p.matchToken(Comma)
	}
	return list, nil
}

// matchColumnRef consumes a bare or dotted identifier. The qualifier of a
// dotted reference is dropped: queries are single-table.
func (p *Parser) matchColumnRef() (string, bool) {
	ident, ok := p.matchToken(Identifier)
	if !ok {
		return "", false
	}
	name := ident.Text
	if _, ok := p.matchToken(Dot); ok {
		col, ok := p.matchToken(Identifier)
		if !ok {
			return "", false
		}
		name = col.Text
	}
	return name, true
}

// matchOperand consumes one comparison operand: a literal or a column
// reference.
func (p *Parser) matchOperand() (Operand, bool) {
	if lit, ok := p.matchLiteral(); ok {
		return Operand{Lit: lit}, true
	}
	if ident, ok := p.matchColumnRef(); ok {
		return Operand{IsIdent: true, Ident: ident}, true
	}
	return Operand{}, false
}

// matchLiteral consumes a string, number (optionally signed), NULL, TRUE or
// FALSE token.
func (p *Parser) matchLiteral() (Value, bool) {
	if tok, ok := p.matchToken(String); ok {
		return TextValue(tok.Text), true
	}
	if tok, ok := p.matchToken(Number); ok {
		return numberValue(tok.Text), true
	}
	if tok, ok := p.peekToken(Operator); ok && tok.Text == "-" {
		if num, ok := p.peekTokenAt(1, Number); ok {
			p.cursor += 2
			v := numberValue(num.Text)
			if v.Kind == KindInt {
				return IntValue(-v.I), true
			}
			return RealValue(-v.F), true
		}
	}
	switch {
	case p.matchKeyword("null"):
		return NullValue(), true
	case p.matchKeyword("true"):
		return BoolValue(true), true
	case p.matchKeyword("false"):
		return BoolValue(false), true
	}
	return Value{}, false
}

func isComparisonOp(op string) bool {
	switch op {
	case "=", "!=", "<>", ">", "<", ">=", "<=":
		return true
	}
	return false
}

/*
-------------------
Condition evaluator
-------------------
*/

func resolveOperand(op Operand, row Row) Value {
	if op.IsIdent {
		v, ok := row[op.Ident]
		if !ok {
			return NullValue()
		}
		return v
	}
	return op.Lit
}

func evalCond(c *Cond, row Row) bool {
	switch c.Kind {
	case CondAnd:
		return evalCond(c.Left, row) && evalCond(c.Right, row)
	case CondOr:
		return evalCond(c.Left, row) || evalCond(c.Right, row)
	case CondCompare:
		return evalCompare(row[c.Column], c.Op, resolveOperand(c.Operand, row))
	case CondLike:
		left, ok := row[c.Column]
		if !ok || left.IsNull() {
			return false
		}
		return likeRegexp(c.Pattern).MatchString(left.Text())
	case CondIn:
		left := row[c.Column]
		found := false
		for _, entry := range c.List {
			if Equal(left, resolveOperand(entry, row)) {
				found = true
				break
			}
		}
		return found != c.Negate
	case CondBetween:
		n := row[c.Column].Num()
		low := resolveOperand(c.Low, row).Num()
		high := resolveOperand(c.High, row).Num()
		if math.IsNaN(n) || math.IsNaN(low) || math.IsNaN(high) {
			return false
		}
		return n >= low && n <= high
	case CondIsNull:
		v, ok := row[c.Column]
		isNull := !ok || v.IsNull()
		return isNull != c.Negate
	}
	return false
}

func evalCompare(left Value, op string, right Value) bool {
	switch op {
	case "=":
		return Equal(left, right)
	case "!=", "<>":
		return !Equal(left, right)
	}
	if left.IsNull() || right.IsNull() {
		return false
	}
	switch op {
	case ">":
		return Compare(left, right) > 0
	case ">=":
		return Compare(left, right) >= 0
	case "<":
		return Compare(left, right) < 0
	case "<=":
		return Compare(left, right) <= 0
	}
	return false
}

// likePatterns caches compiled LIKE patterns; WHERE clauses repeat the same
// handful of patterns across statements.
var likePatterns, _ = lru.New[string, *regexp.Regexp](128)

// likeRegexp compiles a LIKE pattern into a case-insensitive full-match
// regular expression: % becomes .*, _ becomes ., everything else is
// escaped.
func likeRegexp(pattern string) *regexp.Regexp {
	if re, ok := likePatterns.Get(pattern); ok {
		return re
	}
	var sb strings.Builder
	sb.WriteString("(?i)^")
	for _, r := range pattern {
		switch r {
		case '%':
			sb.WriteString(".*")
		case '_':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")
	re := regexp.MustCompile(sb.String())
	likePatterns.Add(pattern, re)
	return re
}

/*
--------------------
SET-clause evaluator
--------------------
*/

// parseSetExpr parses the right-hand side of one SET item: an operand, or
// `a op b` with op one of + - * /.
func (p *Parser) parseSetExpr() (SetExpr, error) {
	a, ok := p.matchOperand()
	if !ok {
		return SetExpr{}, p.errNear("expected value in SET clause")
	}
	op := ""
	if tok, ok := p.peekToken(Operator); ok && isArithmeticOp(tok.Text) {
		p.cursor++
		op = tok.Text
	} else if _, ok := p.peekToken(Wildcard); ok {
		p.cursor++
		op = "*"
	} else {
		return SetExpr{A: a}, nil
	}
	b, ok := p.matchOperand()
	if !ok {
		return SetExpr{}, p.errNear("expected value after '" + op + "'")
	}
	return SetExpr{Op: op, A: a, B: b}, nil
}

func isArithmeticOp(op string) bool {
	switch op {
	case "+", "-", "/":
		return true
	}
	return false
}

// evalSetExpr evaluates a SET expression against the original row values.
// `+` concatenates when both operands are non-numeric; the other operators
// always coerce numerically and produce NaN for non-numeric operands.
func evalSetExpr(e SetExpr, row Row) Value {
	a := resolveOperand(e.A, row)
	if e.Op == "" {
		return a
	}
	b := resolveOperand(e.B, row)
	if e.Op == "+" && !a.IsNumeric() && !b.IsNumeric() {
		return TextValue(a.Text() + b.Text())
	}
	an, bn := a.Num(), b.Num()
	var n float64
	switch e.Op {
	case "+":
		n = an + bn
	case "-":
		n = an - bn
	case "*":
		n = an * bn
	case "/":
		n = an / bn
	}
	if e.Op != "/" && a.Kind == KindInt && b.Kind == KindInt && !math.IsNaN(n) {
		return IntValue(int64(n))
	}
	return RealValue(n)
}

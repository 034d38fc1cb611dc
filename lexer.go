package tutordb

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenType uint

const (
	EOF TokenType = iota
	Whitespace
	String
	Number
	Keyword
	Identifier
	Operator
	Wildcard
	Comma
	Dot
	Semicolon
	LeftParenthesis
	RightParenthesis
	Unknown
)

type Token struct {
	Type TokenType
	Text string
}

// Lexer scans a statement into a flat token stream. Comments must already
// be stripped by StripComments.
type Lexer struct {
	input          string
	cursor         int
	currTokenStart int
}

func NewLexer() Lexer {
	return Lexer{}
}

func (l *Lexer) Scan(input string) []Token {
	var tokens []Token
	l.input = input
	l.cursor = 0
	for {
		token := l.scanNext()
		if token.Type == EOF {
			break
		}
		if token.Type == Whitespace {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

func (l *Lexer) scanNext() Token {
	l.currTokenStart = l.cursor
	switch {
	case l.cursor >= len(l.input):
		return l.createToken(EOF)
	case l.matchCharFunc(unicode.IsSpace):
		for l.matchCharFunc(unicode.IsSpace) {
			continue
		}
		return l.createToken(Whitespace)
	case l.matchCharFunc(unicode.IsNumber):
		for l.matchCharFunc(unicode.IsNumber) {
			continue
		}
		if l.matchChar('.') {
			for l.matchCharFunc(unicode.IsNumber) {
				continue
			}
		}
		return l.createToken(Number)
	case l.matchCharFunc(isLetterOrUnderscore):
		for l.matchCharFunc(isAlphanumericOrUnderscore) {
			continue
		}
		if stringIsKeyword(l.currString()) {
			return l.createToken(Keyword)
		}
		return l.createToken(Identifier)
	case l.matchChar('\''):
		return l.scanQuoted('\'')
	case l.matchChar('"'):
		return l.scanQuoted('"')
	case l.matchChar(','):
		return l.createToken(Comma)
	case l.matchChar('.'):
		return l.createToken(Dot)
	case l.matchChar(';'):
		return l.createToken(Semicolon)
	case l.matchChar('('):
		return l.createToken(LeftParenthesis)
	case l.matchChar(')'):
		return l.createToken(RightParenthesis)
	case l.matchChar('*'):
		return l.createToken(Wildcard)
	case stringIsOperator(l.peekString(1)):
		// Greedy: extend while the prefix is still a valid operator, so
		// ">=" is one token rather than ">" "=".
		for l.cursor < len(l.input) && stringIsOperator(l.input[l.currTokenStart:l.cursor+1]) {
			l.cursor++
		}
		return l.createToken(Operator)
	default:
		l.cursor++
		return l.createToken(Unknown)
	}
}

func (l *Lexer) scanQuoted(quote rune) Token {
	for l.matchCharFunc(func(a rune) bool { return a != quote }) {
		continue
	}
	if l.cursor >= len(l.input) {
		// No closing quote; keep the raw fragment so the parser can name
		// it in its error.
		return l.createToken(Unknown)
	}
	l.cursor++
	value := l.input[l.currTokenStart+1 : l.cursor-1]
	return Token{Type: String, Text: value}
}

func (l *Lexer) matchChar(value rune) bool {
	if l.cursor >= len(l.input) {
		return false
	}
	char, _ := utf8.DecodeRuneInString(l.input[l.cursor:])
	if char == value {
		l.cursor++
		return true
	}
	return false
}

func (l *Lexer) matchCharFunc(cb func(char rune) bool) bool {
	if l.cursor >= len(l.input) {
		return false
	}
	char, _ := utf8.DecodeRuneInString(l.input[l.cursor:])
	if cb(char) {
		l.cursor++
		return true
	}
	return false
}

func (l Lexer) peekString(n int) string {
	end := l.cursor + n
	if end > len(l.input) {
		end = len(l.input)
	}
	return l.input[l.currTokenStart:end]
}

func (l Lexer) currString() string {
	return l.input[l.currTokenStart:l.cursor]
}

func (l Lexer) createToken(tokenType TokenType) Token {
	return Token{Type: tokenType, Text: l.currString()}
}

// StripComments removes block comments and line comments before any
// parsing. Line comments start with --, //, # or the full-width dash pair
// used by some input methods.
func StripComments(sql string) string {
	var out strings.Builder
	i := 0
	for i < len(sql) {
		if strings.HasPrefix(sql[i:], "/*") {
			end := strings.Index(sql[i+2:], "*/")
			if end < 0 {
				break
			}
			i += 2 + end + 2
			continue
		}
		if c, ok := lineCommentAt(sql, i); ok {
			i += c
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			continue
		}
		// Skip over string literals so comment markers inside them survive.
		if sql[i] == '\'' || sql[i] == '"' {
			quote := sql[i]
			out.WriteByte(sql[i])
			i++
			for i < len(sql) && sql[i] != quote {
				out.WriteByte(sql[i])
				i++
			}
			if i < len(sql) {
				out.WriteByte(sql[i])
				i++
			}
			continue
		}
		out.WriteByte(sql[i])
		i++
	}
	return out.String()
}

func lineCommentAt(sql string, i int) (int, bool) {
	for _, marker := range lineCommentMarkers {
		if strings.HasPrefix(sql[i:], marker) {
			return len(marker), true
		}
	}
	return 0, false
}

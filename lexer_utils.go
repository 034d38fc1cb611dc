package tutordb

import (
	"strings"
	"unicode"

	"golang.org/x/exp/slices"
)

func isLetterOrUnderscore(char rune) bool {
	return unicode.IsLetter(char) || char == '_'
}

func isAlphanumericOrUnderscore(char rune) bool {
	return unicode.IsLetter(char) || unicode.IsNumber(char) || char == '_'
}

var keywords = []string{
	"select",
	"distinct",
	"from",
	"where",
	"group",
	"by",
	"having",
	"order",
	"asc",
	"desc",
	"limit",
	"offset",
	"as",
	"create",
	"table",
	"view",
	"drop",
	"insert",
	"into",
	"values",
	"update",
	"set",
	"delete",
	"join",
	"and",
	"or",
	"not",
	"in",
	"between",
	"is",
	"like",
	"null",
	"true",
	"false",
	"primary",
	"key",
	"unique",
	"foreign",
	"references",
	"constraint",
	"on",
	"cascade",
	"restrict",
	"if",
	"exists",
	"int",
	"integer",
	"real",
	"float",
	"double",
	"decimal",
	"text",
	"char",
	"varchar",
	"boolean",
}

func stringIsKeyword(token string) bool {
	return slices.Contains(keywords, strings.ToLower(token))
}

var operators = []string{
	"=",
	"!=",
	"!",
	"<>",
	">",
	">=",
	"<",
	"<=",
	"+",
	"-",
	"/",
	"%",
}

func stringIsOperator(token string) bool {
	return slices.Contains(operators, token)
}

var lineCommentMarkers = []string{
	"--",
	"－－",
	"//",
	"#",
}

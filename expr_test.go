package tutordb

import (
	"math"
	"testing"
)

func whereCount(t *testing.T, db *Database, where string) int {
	t.Helper()
	return len(query(t, db, "SELECT * FROM people WHERE "+where).Rows)
}

func TestComparisonOperators(t *testing.T) {
	db := peopleDB(t)
	tests := []struct {
		where string
		want  int
	}{
		{"age = 34", 1},
		{"age != 34", 2},
		{"age <> 34", 2},
		{"age > 30", 2},
		{"age >= 34", 2},
		{"age < 30", 1},
		{"age <= 28", 1},
		{"name = 'Alice'", 1},
		{"age = '34'", 1},
		{"age = noSuchColumn", 0},
	}
	for _, tt := range tests {
		if got := whereCount(t, db, tt.where); got != tt.want {
			t.Errorf("WHERE %s: got %d rows, want %d", tt.where, got, tt.want)
		}
	}
}

func TestBooleanConnectives(t *testing.T) {
	db := peopleDB(t)
	tests := []struct {
		where string
		want  int
	}{
		{"dept = 1 AND age > 30", 1},
		{"dept = 2 OR age < 30", 2},
		// AND binds tighter than OR.
		{"dept = 2 OR dept = 1 AND age > 30", 2},
		{"(dept = 2 OR dept = 1) AND age > 30", 2},
	}
	for _, tt := range tests {
		if got := whereCount(t, db, tt.where); got != tt.want {
			t.Errorf("WHERE %s: got %d rows, want %d", tt.where, got, tt.want)
		}
	}
}

func TestLike(t *testing.T) {
	db := peopleDB(t)
	tests := []struct {
		where string
		want  int
	}{
		{"name LIKE 'A%'", 1},
		{"name LIKE '%o%'", 2},
		{"name LIKE '_ob'", 1},
		{"name LIKE 'alice'", 1},
		{"name LIKE 'Al'", 0},
	}
	for _, tt := range tests {
		if got := whereCount(t, db, tt.where); got != tt.want {
			t.Errorf("WHERE %s: got %d rows, want %d", tt.where, got, tt.want)
		}
	}
}

func TestLikeEscapesRegexpMeta(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE files (id INT PRIMARY KEY, name TEXT)",
		"INSERT INTO files VALUES (1, 'a.txt'), (2, 'abtxt')",
	)
	result := query(t, db, "SELECT * FROM files WHERE name LIKE 'a.%'")
	if len(result.Rows) != 1 || result.Rows[0]["name"].S != "a.txt" {
		t.Fatalf("dot in pattern must match literally, got %v", result.Rows)
	}
}

func TestLikeNullIsFalse(t *testing.T) {
	db := runAll(t, peopleDB(t), "INSERT INTO people VALUES (4, NULL, 30, 1)")
	if got := whereCount(t, db, "name LIKE '%'"); got != 3 {
		t.Fatalf("LIKE matched a NULL, got %d rows", got)
	}
}

func TestInList(t *testing.T) {
	db := peopleDB(t)
	if got := whereCount(t, db, "age IN (28, 41)"); got != 2 {
		t.Fatalf("IN: got %d rows, want 2", got)
	}
	if got := whereCount(t, db, "age NOT IN (28, 41)"); got != 1 {
		t.Fatalf("NOT IN: got %d rows, want 1", got)
	}
	if got := whereCount(t, db, "name IN ('Alice', 'Zed')"); got != 1 {
		t.Fatalf("string IN: got %d rows, want 1", got)
	}
}

func TestBetween(t *testing.T) {
	db := peopleDB(t)
	// Bounds are inclusive.
	if got := whereCount(t, db, "age BETWEEN 28 AND 34"); got != 2 {
		t.Fatalf("got %d rows, want 2", got)
	}
	// A non-numeric column never falls in a numeric range.
	if got := whereCount(t, db, "name BETWEEN 1 AND 99"); got != 0 {
		t.Fatalf("got %d rows, want 0", got)
	}
}

func TestIsNull(t *testing.T) {
	db := runAll(t, peopleDB(t), "INSERT INTO people VALUES (4, NULL, 30, 1)")
	if got := whereCount(t, db, "name IS NULL"); got != 1 {
		t.Fatalf("IS NULL: got %d rows, want 1", got)
	}
	if got := whereCount(t, db, "name IS NOT NULL"); got != 3 {
		t.Fatalf("IS NOT NULL: got %d rows, want 3", got)
	}
}

func TestNullComparisonsAreFalse(t *testing.T) {
	db := runAll(t, peopleDB(t), "INSERT INTO people VALUES (4, NULL, NULL, 1)")
	for _, where := range []string{"age > 0", "age < 100", "age >= 0"} {
		if got := whereCount(t, db, where); got != 3 {
			t.Errorf("WHERE %s: got %d rows, NULL must not match a range", where, got)
		}
	}
	if got := whereCount(t, db, "name = NULL"); got != 1 {
		t.Fatalf("NULL = NULL: got %d rows, want 1", got)
	}
}

func TestColumnToColumnComparison(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE pairs (id INT PRIMARY KEY, a INT, b INT)",
		"INSERT INTO pairs VALUES (1, 5, 5), (2, 5, 6)",
	)
	result := query(t, db, "SELECT * FROM pairs WHERE a = b")
	if len(result.Rows) != 1 || result.Rows[0]["id"].I != 1 {
		t.Fatalf("got %v", result.Rows)
	}
}

func TestConditionSyntaxErrors(t *testing.T) {
	db := peopleDB(t)
	for _, sql := range []string{
		"SELECT * FROM people WHERE age >",
		"SELECT * FROM people WHERE age BETWEEN 1",
		"SELECT * FROM people WHERE name LIKE",
		"SELECT * FROM people WHERE (age = 1",
		"SELECT * FROM people WHERE age IS 1",
		"SELECT * FROM people WHERE name = 'abc",
	} {
		wantErr(t, db, sql, ErrSyntax)
	}
}

func TestEvalSetExpr(t *testing.T) {
	row := Row{
		"n":    IntValue(10),
		"f":    RealValue(2.5),
		"s":    TextValue("ab"),
		"nums": TextValue("5"),
	}
	col := func(name string) Operand { return Operand{IsIdent: true, Ident: name} }
	lit := func(v Value) Operand { return Operand{Lit: v} }

	tests := []struct {
		expr SetExpr
		want Value
	}{
		{SetExpr{A: col("n")}, IntValue(10)},
		{SetExpr{Op: "+", A: col("n"), B: lit(IntValue(1))}, IntValue(11)},
		{SetExpr{Op: "-", A: col("n"), B: col("f")}, RealValue(7.5)},
		{SetExpr{Op: "*", A: col("n"), B: lit(IntValue(3))}, IntValue(30)},
		{SetExpr{Op: "/", A: col("n"), B: lit(IntValue(4))}, RealValue(2.5)},
		// Numeric text coerces; + stays arithmetic when either side is numeric.
		{SetExpr{Op: "+", A: col("nums"), B: lit(IntValue(1))}, RealValue(6)},
		// Both sides non-numeric: + concatenates.
		{SetExpr{Op: "+", A: col("s"), B: lit(TextValue("cd"))}, TextValue("abcd")},
	}
	for _, tt := range tests {
		got := evalSetExpr(tt.expr, row)
		if !Equal(got, tt.want) || got.Kind != tt.want.Kind {
			t.Errorf("evalSetExpr(%+v) = %v (kind %d), want %v (kind %d)",
				tt.expr, got, got.Kind, tt.want, tt.want.Kind)
		}
	}

	nan := evalSetExpr(SetExpr{Op: "-", A: col("s"), B: lit(IntValue(1))}, row)
	if nan.Kind != KindReal || !math.IsNaN(nan.F) {
		t.Fatalf("non-numeric subtraction must yield NaN, got %v", nan)
	}
}

func TestUpdateSetMultiplication(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE items (id INT PRIMARY KEY, price INT, qty INT)",
		"INSERT INTO items VALUES (1, 4, 5)",
		"UPDATE items SET price = price * qty",
	)
	if got := db.Rows["items"][0]["price"]; got.I != 20 {
		t.Fatalf("price = %v, want 20", got)
	}
}

func TestValueCoercion(t *testing.T) {
	if !math.IsNaN(TextValue("abc").Num()) {
		t.Error("non-numeric text must coerce to NaN")
	}
	if !math.IsNaN(NullValue().Num()) {
		t.Error("NULL must coerce to NaN")
	}
	if TextValue(" 7 ").Num() != 7 {
		t.Error("padded numeric text must parse")
	}
	if !Equal(IntValue(1), TextValue("1")) {
		t.Error("1 and '1' must compare equal")
	}
	if !Equal(IntValue(1), BoolValue(true)) {
		t.Error("1 and true must compare equal")
	}
	if Equal(NullValue(), IntValue(0)) {
		t.Error("NULL must not equal 0")
	}
	if Compare(IntValue(2), IntValue(10)) >= 0 {
		t.Error("numeric comparison must not be lexicographic")
	}
	if Compare(TextValue("b"), TextValue("a")) <= 0 {
		t.Error("string comparison broken")
	}
	if NullValue().String() != "NULL" {
		t.Error("NULL display form")
	}
	if TextValue("").Truthy() || !TextValue("x").Truthy() {
		t.Error("text truthiness")
	}
}

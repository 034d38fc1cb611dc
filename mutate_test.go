package tutordb

import "testing"

func TestInsertEchoesSingleRow(t *testing.T) {
	db := peopleDB(t)
	_, result, err := Run("INSERT INTO people VALUES (4, 'Dave', 30, 2)", db)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"id", "name", "age", "dept"}
	if len(result.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", result.Columns, want)
	}
	for i := range want {
		if result.Columns[i] != want[i] {
			t.Fatalf("columns = %v, want %v", result.Columns, want)
		}
	}
	if len(result.Rows) != 1 || result.Rows[0]["name"].S != "Dave" {
		t.Fatalf("rows = %v", result.Rows)
	}
}

func TestInsertSummarizesMultipleRows(t *testing.T) {
	db := peopleDB(t)
	_, result, err := Run("INSERT INTO people VALUES (4, 'Dave', 30, 2), (5, 'Eve', 25, 1)", db)
	if err != nil {
		t.Fatal(err)
	}
	if result.Rows[0]["message"].S != "inserted 2 rows" {
		t.Fatalf("message = %v", result.Rows[0]["message"])
	}
	if result.Rows[0]["affected"].I != 2 {
		t.Fatalf("affected = %v", result.Rows[0]["affected"])
	}
}

func TestInsertColumnSubset(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE logs (id INT, msg TEXT, level INT)",
		"INSERT INTO logs (msg) VALUES ('boot')",
	)
	result := query(t, db, "SELECT * FROM logs")
	row := result.Rows[0]
	if row["id"].I != 1 {
		t.Fatalf("auto id = %v, want 1", row["id"])
	}
	if row["msg"].S != "boot" {
		t.Fatalf("msg = %v", row["msg"])
	}
	if !row["level"].IsNull() {
		t.Fatalf("absent column must read as NULL, got %v", row["level"])
	}
}

func TestAutoIncrement(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE logs (id INT, msg TEXT)",
		"INSERT INTO logs (msg) VALUES ('a')",
		"INSERT INTO logs (msg) VALUES ('b')",
		"INSERT INTO logs VALUES (10, 'jump')",
		"INSERT INTO logs (msg) VALUES ('c')",
		"INSERT INTO logs VALUES (NULL, 'd')",
	)
	result := query(t, db, "SELECT id FROM logs ORDER BY id")
	want := []int64{1, 2, 10, 11, 12}
	if len(result.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(result.Rows), len(want))
	}
	for i, id := range want {
		if result.Rows[i]["id"].I != id {
			t.Fatalf("ids = %v, want %v", result.Rows, want)
		}
	}
}

func TestAutoIncrementSynthesizedKey(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE tags (name TEXT)",
		"INSERT INTO tags (name) VALUES ('red'), ('blue')",
	)
	result := query(t, db, "SELECT id, name FROM tags ORDER BY id")
	if result.Rows[0]["id"].I != 1 || result.Rows[1]["id"].I != 2 {
		t.Fatalf("rows = %v", result.Rows)
	}
}

func TestInsertArityAndColumnErrors(t *testing.T) {
	db := peopleDB(t)
	wantErr(t, db, "INSERT INTO people VALUES (4, 'Dave')", ErrSyntax)
	wantErr(t, db, "INSERT INTO people (id, nope) VALUES (4, 1)", ErrSyntax)
}

func TestCastingOnInsert(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE casts (id INT PRIMARY KEY, c CHAR(4), v VARCHAR(3), d DECIMAL(10, 2), n INT, b BOOLEAN)",
		"INSERT INTO casts VALUES (1, 'ab', 'abcdef', 1.006, 3.9, 0)",
		"INSERT INTO casts VALUES (2, 'abcdef', 'x', 2, -3.9, 'yes')",
		"INSERT INTO casts VALUES (3, NULL, NULL, NULL, 'junk', NULL)",
	)
	rows := db.Rows["casts"]

	if got := rows[0]["c"].S; got != "ab  " {
		t.Errorf("CHAR pad: %q, want %q", got, "ab  ")
	}
	if got := rows[1]["c"].S; got != "abcd" {
		t.Errorf("CHAR truncate: %q, want %q", got, "abcd")
	}
	if got := rows[0]["v"].S; got != "abc" {
		t.Errorf("VARCHAR truncate: %q, want %q", got, "abc")
	}
	if got := rows[0]["d"].F; got != 1.01 {
		t.Errorf("DECIMAL round: %v, want 1.01", got)
	}
	if got := rows[0]["n"]; got.Kind != KindInt || got.I != 3 {
		t.Errorf("INT truncation: %v, want 3", got)
	}
	if got := rows[1]["n"].I; got != -3 {
		t.Errorf("INT truncation toward zero: %v, want -3", got)
	}
	if rows[0]["b"].Kind != KindBool || rows[0]["b"].B {
		t.Errorf("BOOLEAN of 0 must be false, got %v", rows[0]["b"])
	}
	if !rows[1]["b"].B {
		t.Errorf("BOOLEAN of non-empty text must be true, got %v", rows[1]["b"])
	}
	if !rows[2]["c"].IsNull() || !rows[2]["d"].IsNull() {
		t.Error("NULL must survive casting")
	}
	if !rows[2]["n"].IsNull() {
		t.Errorf("INT of non-numeric text must be NULL, got %v", rows[2]["n"])
	}
}

func TestCastingCountsRunes(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE names (id INT PRIMARY KEY, c CHAR(4), v VARCHAR(3))",
		"INSERT INTO names VALUES (1, 'héllo', 'héllo')",
		"INSERT INTO names VALUES (2, 'né', 'né')",
	)
	rows := db.Rows["names"]
	if got := rows[0]["c"].S; got != "héll" {
		t.Errorf("CHAR truncate: %q, want %q", got, "héll")
	}
	if got := rows[0]["v"].S; got != "hél" {
		t.Errorf("VARCHAR truncate: %q, want %q", got, "hél")
	}
	if got := rows[1]["c"].S; got != "né  " {
		t.Errorf("CHAR pad: %q, want %q", got, "né  ")
	}
	if got := rows[1]["v"].S; got != "né" {
		t.Errorf("VARCHAR under limit: %q, want %q", got, "né")
	}
}

func TestStagedInsertAborts(t *testing.T) {
	db := peopleDB(t)
	// The second tuple duplicates the first within the same statement; the
	// whole statement must fail and leave nothing behind.
	wantErr(t, db, "INSERT INTO people VALUES (4, 'Dave', 30, 2), (4, 'Dupe', 31, 2)", ErrConstraint)
	if len(db.Rows["people"]) != 3 {
		t.Fatal("failed insert left rows behind")
	}
}

func TestUpdateSeesOriginalRow(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE pairs (id INT PRIMARY KEY, a INT, b INT)",
		"INSERT INTO pairs VALUES (1, 10, 20)",
		"UPDATE pairs SET a = b, b = a",
	)
	row := db.Rows["pairs"][0]
	if row["a"].I != 20 || row["b"].I != 10 {
		t.Fatalf("swap failed: %v", row)
	}
}

func TestUpdateWhereAndAffected(t *testing.T) {
	db := peopleDB(t)
	next, result, err := Run("UPDATE people SET dept = 3 WHERE age > 30", db)
	if err != nil {
		t.Fatal(err)
	}
	if result.Rows[0]["affected"].I != 2 {
		t.Fatalf("affected = %v, want 2", result.Rows[0]["affected"])
	}
	moved := query(t, next, "SELECT count(*) AS n FROM people WHERE dept = 3")
	if moved.Rows[0]["n"].I != 2 {
		t.Fatalf("got %v rows in dept 3", moved.Rows[0]["n"])
	}
}

func TestUpdateAppliesCast(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE c (id INT PRIMARY KEY, code CHAR(4))",
		"INSERT INTO c VALUES (1, 'aaaa')",
		"UPDATE c SET code = 'xy'",
	)
	if got := db.Rows["c"][0]["code"].S; got != "xy  " {
		t.Fatalf("code = %q, want %q", got, "xy  ")
	}
}

func TestUpdateSelfAssignKeepsKey(t *testing.T) {
	db := runAll(t, peopleDB(t), "UPDATE people SET id = id")
	if len(db.Rows["people"]) != 3 {
		t.Fatal("self-assignment must be a no-op")
	}
}

func TestUpdateUnknownColumn(t *testing.T) {
	db := peopleDB(t)
	wantErr(t, db, "UPDATE people SET nope = 1", ErrSyntax)
}

func TestDeleteWhere(t *testing.T) {
	db := peopleDB(t)
	next, result, err := Run("DELETE FROM people WHERE dept = 1", db)
	if err != nil {
		t.Fatal(err)
	}
	if result.Rows[0]["affected"].I != 2 {
		t.Fatalf("affected = %v, want 2", result.Rows[0]["affected"])
	}
	if len(next.Rows["people"]) != 1 || next.Rows["people"][0]["name"].S != "Carol" {
		t.Fatalf("remaining rows = %v", next.Rows["people"])
	}
}

func TestDeleteAll(t *testing.T) {
	db := runAll(t, peopleDB(t), "DELETE FROM people")
	rows, ok := db.Rows["people"]
	if !ok {
		t.Fatal("emptied table lost its row store")
	}
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
	result := query(t, db, "SELECT * FROM people")
	if len(result.Columns) == 0 {
		t.Fatal("emptied table lost its columns")
	}
}

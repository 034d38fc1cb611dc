package tutordb

import (
	"testing"
)

// runAll executes statements in order, failing the test on any error, and
// returns the final snapshot.
func runAll(t *testing.T, db *Database, stmts ...string) *Database {
	t.Helper()
	for _, stmt := range stmts {
		next, _, err := Run(stmt, db)
		if err != nil {
			t.Fatalf("Run(%q): %v", stmt, err)
		}
		db = next
	}
	return db
}

// query runs a single statement and returns its result.
func query(t *testing.T, db *Database, sql string) QueryResult {
	t.Helper()
	_, result, err := Run(sql, db)
	if err != nil {
		t.Fatalf("Run(%q): %v", sql, err)
	}
	return result
}

// wantErr runs a statement expecting an error of the given code and
// verifies the snapshot is returned unchanged.
func wantErr(t *testing.T, db *Database, sql string, code ErrorCode) error {
	t.Helper()
	next, _, err := Run(sql, db)
	if err == nil {
		t.Fatalf("Run(%q): expected error", sql)
	}
	if !IsErrorCode(err, code) {
		t.Fatalf("Run(%q): got error %v, want code %v", sql, err, code)
	}
	if next != db {
		t.Fatalf("Run(%q): snapshot replaced on error", sql)
	}
	return err
}

func peopleDB(t *testing.T) *Database {
	t.Helper()
	return runAll(t, NewDatabase(),
		"CREATE TABLE people (id INT PRIMARY KEY, name VARCHAR(20), age INT, dept INT)",
		"INSERT INTO people VALUES (1, 'Alice', 34, 1)",
		"INSERT INTO people VALUES (2, 'Bob', 28, 1)",
		"INSERT INTO people VALUES (3, 'Carol', 41, 2)",
	)
}

func TestRoundTrip(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE t (id INT PRIMARY KEY, name VARCHAR(20))",
		"INSERT INTO t VALUES (1, 'Alice')",
	)
	result := query(t, db, "SELECT * FROM t WHERE id = 1")
	if len(result.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if row["id"].I != 1 || row["name"].S != "Alice" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestCommentStripping(t *testing.T) {
	db := peopleDB(t)
	for _, sql := range []string{
		"/* block */ SELECT * FROM people -- trailing",
		"// leading line\nSELECT * FROM people",
		"# hash comment\nSELECT * FROM people",
		"SELECT * FROM people /* inline */ WHERE age > 0",
	} {
		result := query(t, db, sql)
		if len(result.Rows) != 3 {
			t.Errorf("Run(%q): got %d rows, want 3", sql, len(result.Rows))
		}
	}
}

func TestCommentMarkerInsideStringSurvives(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE notes (id INT PRIMARY KEY, body TEXT)",
		"INSERT INTO notes VALUES (1, 'a--b')",
	)
	result := query(t, db, "SELECT body FROM notes")
	if got := result.Rows[0]["body"].S; got != "a--b" {
		t.Fatalf("got %q, want %q", got, "a--b")
	}
}

func TestUnsupportedStatement(t *testing.T) {
	db := peopleDB(t)
	wantErr(t, db, "TRUNCATE people", ErrUnsupported)
	wantErr(t, db, "ALTER TABLE people ADD x INT", ErrUnsupported)
}

func TestJoinRejected(t *testing.T) {
	db := peopleDB(t)
	err := wantErr(t, db, "SELECT * FROM people JOIN people", ErrUnsupported)
	if err == nil {
		t.Fatal("expected JOIN rejection")
	}
}

func TestUnknownTable(t *testing.T) {
	db := NewDatabase()
	wantErr(t, db, "SELECT * FROM missing", ErrUnknownEntity)
	wantErr(t, db, "INSERT INTO missing VALUES (1)", ErrUnknownEntity)
	wantErr(t, db, "DROP TABLE missing", ErrUnknownEntity)
}

func TestSnapshotNeverMutated(t *testing.T) {
	db := peopleDB(t)
	before := len(db.Rows["people"])

	next := runAll(t, db, "INSERT INTO people VALUES (4, 'Dan', 30, 2)")
	if len(db.Rows["people"]) != before {
		t.Fatal("insert mutated the input snapshot")
	}
	if len(next.Rows["people"]) != before+1 {
		t.Fatal("insert missing from new snapshot")
	}

	next = runAll(t, db, "UPDATE people SET age = 99 WHERE id = 1")
	if db.Rows["people"][0]["age"].I != 34 {
		t.Fatal("update mutated the input snapshot")
	}
	if next.Rows["people"][0]["age"].I != 99 {
		t.Fatal("update missing from new snapshot")
	}

	runAll(t, db, "DELETE FROM people")
	if len(db.Rows["people"]) != 3 {
		t.Fatal("delete mutated the input snapshot")
	}
}

func TestErrorResultShape(t *testing.T) {
	db := NewDatabase()
	_, _, err := Run("SELECT * FROM missing", db)
	if err == nil {
		t.Fatal("expected error")
	}
	result := ErrorResult(err)
	if len(result.Columns) != 1 || result.Columns[0] != "error" {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	if got := result.Rows[0]["error"].S; got != err.Error() {
		t.Fatalf("got %q, want %q", got, err.Error())
	}
}

func TestEmptyStatement(t *testing.T) {
	db := NewDatabase()
	wantErr(t, db, "   /* nothing */  ", ErrSyntax)
}

func TestActiveFollowsStatements(t *testing.T) {
	db := runAll(t, NewDatabase(),
		"CREATE TABLE a (id INT PRIMARY KEY)",
		"CREATE TABLE b (id INT PRIMARY KEY)",
	)
	if db.Active != "b" {
		t.Fatalf("active = %q, want b", db.Active)
	}
	next, _, err := Run("SELECT * FROM a", db)
	if err != nil {
		t.Fatal(err)
	}
	if next.Active != "a" {
		t.Fatalf("active = %q, want a", next.Active)
	}
}

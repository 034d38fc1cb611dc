package tutordb

import "strings"

// Run executes one SQL statement against a Database snapshot and returns
// the next snapshot together with a tabular result. The input snapshot is
// never modified; on error it is returned unchanged.
//
// A CREATE TABLE call may carry several semicolon-separated statements;
// they commit atomically as one batch.
func Run(sql string, db *Database) (*Database, QueryResult, error) {
	text := strings.TrimSpace(StripComments(sql))
	if text == "" {
		return db, QueryResult{}, Errorf(ErrSyntax, "empty statement")
	}

	if isCreateTable(text) {
		stmts, err := ParseCreateTables(text)
		if err != nil {
			return db, QueryResult{}, err
		}
		return runCreateTables(db, stmts)
	}

	lexer := NewLexer()
	parser := NewParser()
	stmt, err := parser.Parse(lexer.Scan(text))
	if err != nil {
		return db, QueryResult{}, err
	}

	switch stmt.Kind {
	case SelectKind:
		result, err := runSelect(db, stmt.Select)
		if err != nil {
			return db, QueryResult{}, err
		}
		if db.Active != stmt.Select.Table {
			next := db.clone()
			next.Active = stmt.Select.Table
			return next, result, nil
		}
		return db, result, nil
	case InsertKind:
		return runInsert(db, stmt.Insert)
	case UpdateKind:
		return runUpdate(db, stmt.Update)
	case DeleteKind:
		return runDelete(db, stmt.Delete)
	case CreateViewKind:
		return runCreateView(db, stmt.CreateView)
	case DropTableKind:
		return runDropTable(db, stmt.DropTable)
	}
	return db, QueryResult{}, Errorf(ErrUnsupported,
		"unsupported statement; supported: CREATE TABLE, CREATE VIEW, DROP TABLE, INSERT, UPDATE, DELETE, SELECT")
}

func isCreateTable(text string) bool {
	fields := strings.Fields(text)
	return len(fields) >= 2 &&
		strings.EqualFold(fields[0], "create") &&
		strings.EqualFold(fields[1], "table")
}

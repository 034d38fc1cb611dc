package tutordb

import (
	"math"
	"strings"
)

/*
------------
Type casting
------------
*/

// castRow casts a row's values to the schema's column types. Fields absent
// from the source stay absent; they are not defaulted.
func castRow(schema *Schema, row Row) Row {
	out := make(Row, len(row))
	for _, col := range schema.Columns {
		v, ok := row[col.Name]
		if !ok {
			continue
		}
		out[col.Name] = castValue(col, v)
	}
	return out
}

func castValue(col Column, v Value) Value {
	if v.IsNull() {
		return v
	}
	switch col.Type {
	case TypeInt:
		n := v.Num()
		if math.IsNaN(n) {
			return NullValue()
		}
		return IntValue(int64(n)) // truncates toward zero
	case TypeReal:
		return RealValue(v.Num())
	case TypeDecimal:
		pow := math.Pow(10, float64(col.Scale))
		return RealValue(math.Round(v.Num()*pow) / pow)
	case TypeChar:
		// Lengths count runes, not bytes.
		r := []rune(v.Text())
		if len(r) > col.Length {
			return TextValue(string(r[:col.Length]))
		}
		return TextValue(string(r) + strings.Repeat(" ", col.Length-len(r)))
	case TypeVarchar:
		r := []rune(v.Text())
		if len(r) > col.Length {
			return TextValue(string(r[:col.Length]))
		}
		return TextValue(v.Text())
	case TypeBool:
		return BoolValue(v.Truthy())
	}
	return TextValue(v.Text())
}

/*
------
INSERT
------
*/

func runInsert(db *Database, stmt InsertStatement) (*Database, QueryResult, error) {
	schema, rows, err := db.table(stmt.Table)
	if err != nil {
		return db, QueryResult{}, err
	}

	columns := stmt.Columns
	if len(columns) == 0 {
		columns = schema.ColumnNames()
	}
	for _, col := range columns {
		if _, ok := schema.Column(col); !ok {
			return db, QueryResult{}, Errorf(ErrSyntax, "unknown column %s in table %s", col, stmt.Table)
		}
	}

	nextID := int64(0)
	if schema.AutoIncrement && len(schema.PrimaryKey) == 1 {
		pk := schema.PrimaryKey[0]
		for _, row := range rows {
			if v := row[pk]; v.Kind == KindInt && v.I > nextID {
				nextID = v.I
			}
		}
	}

	// staged grows with each accepted tuple so later tuples in the same
	// statement are checked against earlier ones.
	staged := rows
	for _, tuple := range stmt.Tuples {
		if len(tuple) != len(columns) {
			return db, QueryResult{}, Errorf(ErrSyntax,
				"expected %d values for table %s, got %d", len(columns), stmt.Table, len(tuple))
		}
		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = tuple[i]
		}
		row = castRow(schema, row)

		if schema.AutoIncrement && len(schema.PrimaryKey) == 1 {
			pk := schema.PrimaryKey[0]
			if v, ok := row[pk]; !ok || v.IsNull() {
				nextID++
				row[pk] = IntValue(nextID)
			} else if v.Kind == KindInt && v.I > nextID {
				nextID = v.I
			}
		}

		if err := checkPrimaryKey(schema, staged, row, -1); err != nil {
			return db, QueryResult{}, err
		}
		if err := checkUniqueKeys(schema, staged, row, -1); err != nil {
			return db, QueryResult{}, err
		}
		scratch := map[string][]Row{stmt.Table: staged}
		if err := checkForeignKeys(db, scratch, schema, row); err != nil {
			return db, QueryResult{}, err
		}

		staged = append(staged[:len(staged):len(staged)], row)
	}

	next := db.clone()
	next.Rows[stmt.Table] = staged
	next.Active = stmt.Table
	if err := next.checkInvariant(); err != nil {
		return db, QueryResult{}, err
	}

	inserted := len(stmt.Tuples)
	if inserted == 1 {
		row := staged[len(staged)-1]
		var cols []string
		for _, name := range schema.ColumnNames() {
			if _, ok := row[name]; ok {
				cols = append(cols, name)
			}
		}
		return next, QueryResult{Columns: cols, Rows: []Row{row}}, nil
	}
	return next, messageResult("inserted "+itoa(inserted)+" rows", int64(inserted)), nil
}

/*
------
UPDATE
------
*/

func runUpdate(db *Database, stmt UpdateStatement) (*Database, QueryResult, error) {
	schema, rows, err := db.table(stmt.Table)
	if err != nil {
		return db, QueryResult{}, err
	}
	for _, set := range stmt.Sets {
		if _, ok := schema.Column(set.Column); !ok {
			return db, QueryResult{}, Errorf(ErrSyntax, "unknown column %s in table %s", set.Column, stmt.Table)
		}
	}

	working := make([]Row, len(rows))
	copy(working, rows)
	affected := 0

	for i, row := range rows {
		if stmt.Where != nil && !evalCond(stmt.Where, row) {
			continue
		}
		// SET expressions see the original row values, not in-progress
		// updates within the same row.
		updated := row.clone()
		for _, set := range stmt.Sets {
			updated[set.Column] = evalSetExpr(set.Expr, row)
		}
		updated = castRow(schema, updated)

		if err := checkPrimaryKey(schema, working, updated, i); err != nil {
			return db, QueryResult{}, err
		}
		if err := checkUniqueKeys(schema, working, updated, i); err != nil {
			return db, QueryResult{}, err
		}
		working[i] = updated
		affected++
	}

	scratch := map[string][]Row{stmt.Table: working}
	for i := range rows {
		if !sameRow(rows[i], working[i]) {
			if err := checkForeignKeys(db, scratch, schema, working[i]); err != nil {
				return db, QueryResult{}, err
			}
		}
	}
	if err := cascadeUpdate(db, scratch, stmt.Table, rows, working); err != nil {
		return db, QueryResult{}, err
	}

	next := db.clone()
	for table, tableRows := range scratch {
		next.Rows[table] = tableRows
	}
	next.Active = stmt.Table
	if err := next.checkInvariant(); err != nil {
		return db, QueryResult{}, err
	}
	return next, messageResult("updated "+itoa(affected)+" rows", int64(affected)), nil
}

func sameRow(a, b Row) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}

/*
------
DELETE
------
*/

func runDelete(db *Database, stmt DeleteStatement) (*Database, QueryResult, error) {
	_, rows, err := db.table(stmt.Table)
	if err != nil {
		return db, QueryResult{}, err
	}

	var kept, doomed []Row
	for _, row := range rows {
		if stmt.Where == nil || evalCond(stmt.Where, row) {
			doomed = append(doomed, row)
		} else {
			kept = append(kept, row)
		}
	}

	scratch := map[string][]Row{stmt.Table: kept}
	if len(doomed) > 0 {
		if err := cascadeDelete(db, scratch, stmt.Table, doomed); err != nil {
			return db, QueryResult{}, err
		}
	}

	next := db.clone()
	for table, tableRows := range scratch {
		if tableRows == nil {
			tableRows = []Row{}
		}
		next.Rows[table] = tableRows
	}
	next.Active = stmt.Table
	if err := next.checkInvariant(); err != nil {
		return db, QueryResult{}, err
	}
	// Cascaded removals in other tables are not counted.
	return next, messageResult("deleted "+itoa(len(doomed))+" rows", int64(len(doomed))), nil
}

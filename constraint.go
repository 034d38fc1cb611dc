package tutordb

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// maxCascadeDepth bounds cascade propagation. A cyclic foreign-key graph
// would otherwise recurse forever; exceeding the cap aborts the statement.
const maxCascadeDepth = 16

/*
----------------
Uniqueness checks
----------------
*/

// checkPrimaryKey verifies that row carries a non-NULL primary key tuple
// not already present in rows. skipIndex excludes the row's own slot on
// the update path (-1 for inserts).
func checkPrimaryKey(schema *Schema, rows []Row, row Row, skipIndex int) error {
	if len(schema.PrimaryKey) == 0 {
		return nil
	}
	for _, col := range schema.PrimaryKey {
		if v, ok := row[col]; !ok || v.IsNull() {
			return Errorf(ErrConstraint, "NULL in primary key column %s of table %s", col, schema.Name)
		}
	}
	key := tupleKey(row.keyOf(schema.PrimaryKey))
	for i, existing := range rows {
		if i == skipIndex {
			continue
		}
		if tupleKey(existing.keyOf(schema.PrimaryKey)) == key {
			return Errorf(ErrConstraint, "duplicate primary key %s in table %s", key, schema.Name)
		}
	}
	return nil
}

// checkUniqueKeys verifies every unique constraint. A row with a NULL in
// any participating column is exempt from that constraint.
func checkUniqueKeys(schema *Schema, rows []Row, row Row, skipIndex int) error {
	for _, u := range schema.UniqueKeys {
		if hasNullAt(row, u.Columns) {
			continue
		}
		key := tupleKey(row.keyOf(u.Columns))
		for i, existing := range rows {
			if i == skipIndex || hasNullAt(existing, u.Columns) {
				continue
			}
			if tupleKey(existing.keyOf(u.Columns)) == key {
				return Errorf(ErrConstraint, "unique constraint %s violated by %s in table %s", u.Name, key, schema.Name)
			}
		}
	}
	return nil
}

// checkForeignKeys verifies that every foreign key of row points at an
// existing parent row. A foreign key with any NULL local value is exempt.
func checkForeignKeys(db *Database, scratch map[string][]Row, schema *Schema, row Row) error {
	for _, fk := range schema.ForeignKeys {
		if hasNullAt(row, fk.Columns) {
			continue
		}
		key := tupleKey(row.keyOf(fk.Columns))
		found := false
		for _, parent := range scratchRows(scratch, db, fk.RefTable) {
			if tupleKey(parent.keyOf(fk.RefColumns)) == key {
				found = true
				break
			}
		}
		if !found {
			return Errorf(ErrConstraint, "foreign key %s violated: no row in %s matches %s", fk.Name, fk.RefTable, key)
		}
	}
	return nil
}

func hasNullAt(row Row, cols []string) bool {
	for _, col := range cols {
		if v, ok := row[col]; !ok || v.IsNull() {
			return true
		}
	}
	return false
}

/*
--------------
Cascade engine
--------------
*/

// scratch maps table name to its working row slice during one statement.
// Tables never written stay absent and read through to the snapshot.
func scratchRows(scratch map[string][]Row, db *Database, table string) []Row {
	if rows, ok := scratch[table]; ok {
		return rows
	}
	return db.Rows[table]
}

// sortedTableNames gives a deterministic iteration order over schemas.
func sortedTableNames(db *Database) []string {
	names := maps.Keys(db.Schemas)
	slices.Sort(names)
	return names
}

type doomedSet struct {
	table string
	rows  []Row
	depth int
}

// cascadeDelete propagates a pending deletion through every referencing
// foreign key using an explicit worklist. The caller has already removed
// the doomed rows from scratch; on error the scratch map is simply
// discarded, leaving the snapshot untouched.
func cascadeDelete(db *Database, scratch map[string][]Row, table string, doomed []Row) error {
	queue := []doomedSet{{table: table, rows: doomed}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		if item.depth > maxCascadeDepth {
			return Errorf(ErrReferentialAction,
				"cascade depth exceeded deleting from %s; foreign keys may form a cycle", table)
		}

		for _, childName := range sortedTableNames(db) {
			child := db.Schemas[childName]
			for _, fk := range child.ForeignKeys {
				if fk.RefTable != item.table {
					continue
				}
				parentKeys := map[string]bool{}
				for _, row := range item.rows {
					parentKeys[tupleKey(row.keyOf(fk.RefColumns))] = true
				}

				rows := scratchRows(scratch, db, childName)
				hits := func(row Row) bool {
					return !hasNullAt(row, fk.Columns) && parentKeys[tupleKey(row.keyOf(fk.Columns))]
				}
				var matched []Row
				for _, row := range rows {
					if hits(row) {
						matched = append(matched, row)
					}
				}
				if len(matched) == 0 {
					continue
				}

				switch fk.OnDelete {
				case ActionRestrict:
					return Errorf(ErrReferentialAction,
						"cannot delete from %s: restricted by foreign key %s on table %s", item.table, fk.Name, childName)
				case ActionSetNull:
					// In-place rewrite: SET NULL updates existing rows and
					// must not disturb their order.
					rewritten := make([]Row, len(rows))
					for i, row := range rows {
						rewritten[i] = row
						if hits(row) {
							nulled := row.clone()
							for _, col := range fk.Columns {
								nulled[col] = NullValue()
							}
							rewritten[i] = nulled
						}
					}
					scratch[childName] = rewritten
				case ActionCascade:
					kept := make([]Row, 0, len(rows)-len(matched))
					for _, row := range rows {
						if !hits(row) {
							kept = append(kept, row)
						}
					}
					scratch[childName] = kept
					queue = append(queue, doomedSet{table: childName, rows: matched, depth: item.depth + 1})
				}
			}
		}
	}
	return nil
}

// cascadeUpdate applies ON UPDATE actions after a parent table's rows were
// rewritten. oldRows and newRows correspond positionally; the old-key to
// new-key mapping is computed from that pairing, not by re-querying.
func cascadeUpdate(db *Database, scratch map[string][]Row, table string, oldRows, newRows []Row) error {
	for _, childName := range sortedTableNames(db) {
		child := db.Schemas[childName]
		for _, fk := range child.ForeignKeys {
			if fk.RefTable != table {
				continue
			}
			newKeys := map[string][]Value{}
			for i := range oldRows {
				oldKey := tupleKey(oldRows[i].keyOf(fk.RefColumns))
				newKey := newRows[i].keyOf(fk.RefColumns)
				if oldKey != tupleKey(newKey) {
					newKeys[oldKey] = newKey
				}
			}
			if len(newKeys) == 0 {
				continue
			}

			rows := scratchRows(scratch, db, childName)
			rewritten := make([]Row, len(rows))
			touched := false
			for i, row := range rows {
				rewritten[i] = row
				if hasNullAt(row, fk.Columns) {
					continue
				}
				newKey, ok := newKeys[tupleKey(row.keyOf(fk.Columns))]
				if !ok {
					continue
				}
				switch fk.OnUpdate {
				case ActionRestrict:
					return Errorf(ErrReferentialAction,
						"cannot update %s: restricted by foreign key %s on table %s", table, fk.Name, childName)
				case ActionSetNull:
					updated := row.clone()
					for _, col := range fk.Columns {
						updated[col] = NullValue()
					}
					rewritten[i] = updated
					touched = true
				case ActionCascade:
					updated := row.clone()
					for j, col := range fk.Columns {
						updated[col] = newKey[j]
					}
					rewritten[i] = updated
					touched = true
				}
			}
			if touched {
				scratch[childName] = rewritten
			}
		}
	}
	return nil
}

package tutordb

import (
	"math"
	"sort"
)

// resultRow pairs a projected output row with the source row that produced
// it (the group's representative row when grouping), so ORDER BY can fall
// back to unprojected columns.
type resultRow struct {
	src Row
	out Row
}

// runSelect evaluates a single-table SELECT against a snapshot.
func runSelect(db *Database, stmt SelectStatement) (QueryResult, error) {
	schema, rows, err := db.table(stmt.Table)
	if err != nil {
		return QueryResult{}, err
	}

	items := expandSelectItems(stmt.Items, schema)
	columns := make([]string, len(items))
	for i, item := range items {
		columns[i] = item.Name()
	}

	// WHERE filter
	var filtered []Row
	for _, row := range rows {
		if stmt.Where != nil && !evalCond(stmt.Where, row) {
			continue
		}
		filtered = append(filtered, row)
	}

	hasAggregate := false
	for _, item := range items {
		if item.Kind == AggregateItem {
			hasAggregate = true
			break
		}
	}

	var results []resultRow
	switch {
	case len(stmt.GroupBy) > 0:
		// Partition by the tuple of group-by values; each group produces
		// one output row, with the group's first row supplying any
		// non-aggregate item.
		groupIndex := map[string]int{}
		var groups [][]Row
		for _, row := range filtered {
			key := tupleKey(row.keyOf(stmt.GroupBy))
			idx, ok := groupIndex[key]
			if !ok {
				idx = len(groups)
				groupIndex[key] = idx
				groups = append(groups, nil)
			}
			groups[idx] = append(groups[idx], row)
		}
		for _, group := range groups {
			results = append(results, projectGroup(items, group))
		}

	case hasAggregate:
		// Full-table aggregation: the entire filtered set collapses into
		// exactly one output row.
		results = append(results, projectGroup(items, filtered))

	default:
		for _, row := range filtered {
			out := make(Row, len(items))
			for _, item := range items {
				out[item.Name()] = row[item.Column]
			}
			results = append(results, resultRow{src: row, out: out})
		}
	}

	// HAVING filters completed output rows, so it sees SELECT aliases.
	if stmt.Having != nil {
		kept := results[:0]
		for _, r := range results {
			if evalCond(stmt.Having, r.out) {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	if stmt.Distinct {
		seen := map[string]bool{}
		kept := results[:0]
		for _, r := range results {
			key := tupleKey(r.out.keyOf(columns))
			if seen[key] {
				continue
			}
			seen[key] = true
			kept = append(kept, r)
		}
		results = kept
	}

	if len(stmt.OrderBy) > 0 {
		sort.SliceStable(results, func(i, j int) bool {
			for _, item := range stmt.OrderBy {
				c := Compare(orderValue(results[i], item.Column), orderValue(results[j], item.Column))
				if c == 0 {
					continue
				}
				if item.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	results = applyLimit(results, stmt.Limit, stmt.Offset)

	out := QueryResult{Columns: columns, Rows: make([]Row, len(results))}
	for i, r := range results {
		out.Rows[i] = r.out
	}
	return out, nil
}

// expandSelectItems replaces * and alias.* with one item per schema column.
func expandSelectItems(items []SelectItem, schema *Schema) []SelectItem {
	var expanded []SelectItem
	for _, item := range items {
		switch item.Kind {
		case StarItem, AliasStarItem:
			for _, c := range schema.Columns {
				expanded = append(expanded, SelectItem{Kind: ColumnItem, Column: c.Name})
			}
		default:
			expanded = append(expanded, item)
		}
	}
	return expanded
}

// projectGroup builds one output row for a group of rows. The first row of
// the group is the representative for non-aggregate items; an empty group
// (full-table aggregation over no rows) leaves them NULL.
func projectGroup(items []SelectItem, group []Row) resultRow {
	var src Row
	if len(group) > 0 {
		src = group[0]
	}
	out := make(Row, len(items))
	for _, item := range items {
		if item.Kind == AggregateItem {
			out[item.Name()] = aggregate(item.Func, item.Arg, group)
			continue
		}
		if src != nil {
			out[item.Name()] = src[item.Column]
		} else {
			out[item.Name()] = NullValue()
		}
	}
	return resultRow{src: src, out: out}
}

// aggregate computes one aggregate function over a group. COUNT(*) counts
// every row; the other forms drop NULLs first. SUM and AVG coerce
// non-numeric values to 0 — a documented quirk of the engine, kept as is.
func aggregate(fn, arg string, group []Row) Value {
	if fn == "count" && arg == "*" {
		return IntValue(int64(len(group)))
	}

	var vals []Value
	for _, row := range group {
		v, ok := row[arg]
		if !ok || v.IsNull() {
			continue
		}
		vals = append(vals, v)
	}

	switch fn {
	case "count":
		return IntValue(int64(len(vals)))

	case "sum", "avg":
		total := 0.0
		allInt := true
		for _, v := range vals {
			n := v.Num()
			if math.IsNaN(n) {
				n = 0
			}
			if v.Kind != KindInt {
				allInt = false
			}
			total += n
		}
		if fn == "avg" {
			if len(vals) == 0 {
				return RealValue(0)
			}
			return RealValue(total / float64(len(vals)))
		}
		if allInt {
			return IntValue(int64(total))
		}
		return RealValue(total)

	case "min", "max":
		if len(vals) == 0 {
			return NullValue()
		}
		best := vals[0]
		for _, v := range vals[1:] {
			c := Compare(v, best)
			if (fn == "min" && c < 0) || (fn == "max" && c > 0) {
				best = v
			}
		}
		return best
	}
	return NullValue()
}

func orderValue(r resultRow, column string) Value {
	if v, ok := r.out[column]; ok {
		return v
	}
	if r.src != nil {
		return r.src[column]
	}
	return NullValue()
}

func applyLimit(results []resultRow, limit, offset int) []resultRow {
	start := 0
	if offset > 0 {
		start = offset
	}
	if start > len(results) {
		start = len(results)
	}
	end := len(results)
	if limit >= 0 && start+limit < end {
		end = start + limit
	}
	return results[start:end]
}

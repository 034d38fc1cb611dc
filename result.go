package tutordb

import "strconv"

// QueryResult is the tabular outcome of one statement: an ordered column
// list and the result rows.
type QueryResult struct {
	Columns []string
	Rows    []Row
}

// messageResult shapes a mutation summary as a one-row result.
func messageResult(message string, affected int64) QueryResult {
	return QueryResult{
		Columns: []string{"message", "affected"},
		Rows: []Row{{
			"message":  TextValue(message),
			"affected": IntValue(affected),
		}},
	}
}

// ErrorResult shapes an error the way downstream renderers expect: a
// single-column payload carrying the message verbatim.
func ErrorResult(err error) QueryResult {
	return QueryResult{
		Columns: []string{"error"},
		Rows:    []Row{{"error": TextValue(err.Error())}},
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

package mysql

import (
	"context"
	"database/sql"
	"strings"
)

// resolveBatch keeps each IN list far below MySQL's placeholder limit
const resolveBatch = 500

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// inClause returns "?,?,?" for n ids and the ids as query args
func inClause(ids []int64) (string, []any) {
	marks := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return marks, args
}

// uniqueIDs drops repeated ids, keeping first occurrences
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

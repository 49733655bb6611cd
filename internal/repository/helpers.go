package repository

import (
	"errors"
	"strings"
)

// ErrSessionNotFound is returned by session stores for unknown tokens.
var ErrSessionNotFound = errors.New("session not found")

// inClause returns "?, ?, ?" for n placeholders and the ids as query args.
func inClause(ids []int64) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func stringArgs(values []string) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}

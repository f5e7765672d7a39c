package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by operations that target a specific row which does
// not exist. List operations return empty slices instead.
var ErrNotFound = errors.New("not found")

// placeholders returns "?, ?, ..." for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids to a []any usable as variadic query arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

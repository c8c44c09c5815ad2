package inspect

import (
	"context"
	"errors"
)

var (
	// ErrInspectorCrashed marks an inspection child that died without a reply.
	ErrInspectorCrashed = errors.New("inspector crashed")
	// ErrInspectTimeout marks an inspection that exceeded its deadline.
	ErrInspectTimeout = errors.New("inspection timed out")
)

// Result is what a successful inspection observed.
type Result struct {
	PageCount uint64 `json:"page_count"`
	Encrypted bool   `json:"encrypted"`
}

// Inspector opens a document and reports its page count and encryption flag.
type Inspector interface {
	Inspect(ctx context.Context, path string) (Result, error)
}

// InspectorFunc adapts a function to the Inspector interface.
type InspectorFunc func(ctx context.Context, path string) (Result, error)

// Inspect calls f.
func (f InspectorFunc) Inspect(ctx context.Context, path string) (Result, error) {
	return f(ctx, path)
}

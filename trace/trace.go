package trace

import (
	"context"

	"github.com/google/uuid"
)

type keyType struct{}

var key keyType

// New creates a new context with a generated TraceID and returns (ctx, id).
func New(parent context.Context) (context.Context, string) {
	id := GenerateID()
	ctx := context.WithValue(parent, key, id)
	return ctx, id
}

// NewWithID stores the provided id into the context; if empty, generates one.
// Returns (ctx, idUsed).
func NewWithID(parent context.Context, id string) (context.Context, string) {
	if id == "" {
		return New(parent)
	}
	ctx := context.WithValue(parent, key, id)
	return ctx, id
}

// From returns the TraceID stored in the context, if any.
func From(ctx context.Context) (string, bool) {
	v := ctx.Value(key)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GenerateID returns a random UUIDv4 string.
func GenerateID() string {
	return uuid.NewString()
}

package observability

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type runIDKey struct{}

// WithRunID returns a context carrying a fresh ULID that identifies one pass
// through the pipeline. Log lines emitted under it share the same run_id.
func WithRunID(ctx context.Context) context.Context {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return ctx
	}
	return context.WithValue(ctx, runIDKey{}, id.String())
}

// RunID returns the run ID stored in ctx, or "" if none.
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

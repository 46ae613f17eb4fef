package cache

import "context"

type contextKey struct{}

// ContextWithRunID tags ctx with the id of the run loading descriptors, so
// ledger entries can name the run that produced them.
func ContextWithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// RunIDFromContext returns the run id stored by ContextWithRunID, or "".
func RunIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

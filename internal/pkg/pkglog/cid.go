package pkglog

import "context"

type correlationIDKey struct{}

const invalidCorrelationID = "[invalid_chain_id]"

// GetCorrelationID returns the correlation ID set by the HTTP middleware,
// or a placeholder when the context has none.
func GetCorrelationID(ctx context.Context) string {
	cid, ok := ctx.Value(correlationIDKey{}).(string)
	if !ok {
		return invalidCorrelationID
	}
	return cid
}

func SetCorrelationID(ctx context.Context, cid string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, cid)
}

// Detach keeps the correlation ID of ctx but drops its deadline and
// cancellation, for work that outlives a request.
func Detach(parent, ctx context.Context) context.Context {
	if cid := GetCorrelationID(ctx); cid != invalidCorrelationID {
		return SetCorrelationID(parent, cid)
	}
	return parent
}

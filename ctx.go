package auth

import (
	"context"
)

var customerCtxKey = &contextKey{"customer"}

type contextKey struct {
	name string
}

// WithContext sets the authenticated Customer in the given context
func WithContext(ctx context.Context, customer *Customer) context.Context {
	return context.WithValue(ctx, customerCtxKey, customer)
}

// FromContext finds the authenticated customer from the context.
func FromContext(ctx context.Context) (*Customer, bool) {
	raw, ok := ctx.Value(customerCtxKey).(*Customer)
	if !ok || raw == nil {
		return nil, false
	}
	return raw, true
}

// ClearContext detaches the authenticated customer, returning an anonymous
// context. Used by logout paths so downstream calls see no identity.
func ClearContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, customerCtxKey, (*Customer)(nil))
}

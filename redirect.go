package auth

import (
	"context"
	"sync"
)

var returnURLCtxKey = &contextKey{"return-url"}

// returnURLBox is mutable so the stash can be consumed without rebuilding
// the context chain.
type returnURLBox struct {
	mu  sync.Mutex
	url string
}

// WithReturnURL stashes the post-login destination on the context. The stash
// is set while the caller is still anonymous and read back once the login
// lands, replacing the session-backed redirect key a web tier would use.
func WithReturnURL(ctx context.Context, url string) context.Context {
	if box, ok := ctx.Value(returnURLCtxKey).(*returnURLBox); ok {
		box.mu.Lock()
		box.url = url
		box.mu.Unlock()
		return ctx
	}
	return context.WithValue(ctx, returnURLCtxKey, &returnURLBox{url: url})
}

// PeekReturnURL reads the stashed destination without consuming it
func PeekReturnURL(ctx context.Context) (string, bool) {
	box, ok := ctx.Value(returnURLCtxKey).(*returnURLBox)
	if !ok {
		return "", false
	}

	box.mu.Lock()
	defer box.mu.Unlock()
	return box.url, box.url != ""
}

// ConsumeReturnURL returns the stashed destination and clears it, so a
// second redirect after the same login falls through to the caller's
// default. Returns false when nothing was stashed.
func ConsumeReturnURL(ctx context.Context) (string, bool) {
	box, ok := ctx.Value(returnURLCtxKey).(*returnURLBox)
	if !ok {
		return "", false
	}

	box.mu.Lock()
	defer box.mu.Unlock()

	url := box.url
	box.url = ""
	return url, url != ""
}

// Package session carries the current user through context for operations
// that require one.
package session

import "context"

// User identifies who is performing an operation.
type User struct {
	Name  string
	Admin bool
}

type contextKey struct{}

// WithUser returns a context carrying the user.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

// UserFrom extracts the current user, if any.
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(contextKey{}).(User)
	return u, ok
}

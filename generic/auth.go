package generic

import "context"

// Authenticator checks that the current invocation carries an authorization
// proof from account. It is called before any state is read or written and
// returns ErrUnauthorized (or an error matching it) on failure.
//
// Implementations live in the auth package: a context-bound authenticator
// fed by signed HTTP requests, and a static one for tests and tools.
type Authenticator interface {
	RequireAuth(ctx context.Context, account Address) error
}

// AuthenticatorFunc adapts a function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, account Address) error

func (f AuthenticatorFunc) RequireAuth(ctx context.Context, account Address) error {
	return f(ctx, account)
}

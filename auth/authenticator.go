package auth

import (
	"context"
	"sync"

	"github.com/warp/asset-vault/generic"
)

type signerKey struct{}

// WithSigner records the verified signer of the current request.
func WithSigner(ctx context.Context, addr generic.Address) context.Context {
	return context.WithValue(ctx, signerKey{}, addr)
}

// SignerFrom returns the signer recorded by WithSigner.
func SignerFrom(ctx context.Context) (generic.Address, bool) {
	addr, ok := ctx.Value(signerKey{}).(generic.Address)
	return addr, ok && !addr.IsZero()
}

// =============================================================================
// CONTEXT AUTHENTICATOR
// =============================================================================

// Context authenticates an account when the request context carries a
// signature from that same account.
type Context struct{}

func (Context) RequireAuth(ctx context.Context, account generic.Address) error {
	signer, ok := SignerFrom(ctx)
	if !ok {
		return generic.NewError(generic.CodeUnauthorized, "auth", "request is not signed")
	}
	if signer != account {
		return generic.NewError(generic.CodeUnauthorized, "auth", "signed by "+signer.String()+", not "+account.String())
	}
	return nil
}

// =============================================================================
// STATIC AUTHENTICATOR
// =============================================================================

// Static authenticates a fixed, mutable set of accounts.
type Static struct {
	mu       sync.RWMutex
	accounts map[generic.Address]bool
}

func NewStatic(accounts ...generic.Address) *Static {
	s := &Static{accounts: make(map[generic.Address]bool)}
	for _, a := range accounts {
		s.accounts[a] = true
	}
	return s
}

func (s *Static) Allow(account generic.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[account] = true
}

func (s *Static) Revoke(account generic.Address) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accounts, account)
}

func (s *Static) RequireAuth(_ context.Context, account generic.Address) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.accounts[account] {
		return generic.NewError(generic.CodeUnauthorized, "auth", account.String()+" is not authorized")
	}
	return nil
}

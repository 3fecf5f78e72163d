package auth

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultReplayCacheSize bounds how many proofs a ReplayGuard remembers.
const DefaultReplayCacheSize = 1 << 18

var ErrReplayedRequest = errors.New("request signature already used")

// ReplayGuard accepts each verified proof once. Entries expire after the
// window, which must cover every timestamp VerifyRequest still accepts:
// twice the allowed skew.
type ReplayGuard struct {
	mu   sync.Mutex
	seen *expirable.LRU[string, struct{}]
}

func NewReplayGuard(window time.Duration, size int) *ReplayGuard {
	if size <= 0 {
		size = DefaultReplayCacheSize
	}
	return &ReplayGuard{seen: expirable.NewLRU[string, struct{}](size, nil, window)}
}

// Check records p, or fails with ErrReplayedRequest if p was seen before.
// Proofs are keyed by signature, which already binds key and message. Call
// it only after the proof has been verified.
func (g *ReplayGuard) Check(p Proof) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen.Get(p.Signature); ok {
		return ErrReplayedRequest
	}
	g.seen.Add(p.Signature, struct{}{})
	return nil
}

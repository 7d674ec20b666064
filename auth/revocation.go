package auth

import (
	"context"
	"time"

	"github.com/zemen-restaurant/zemen-backend/cache"
)

const revokedKey = "auth:revoked:"

// Revoker remembers logged out tokens until they would have expired anyway.
type Revoker struct {
	store cache.Store
	now   func() time.Time
}

func NewRevoker(store cache.Store) *Revoker {
	return &Revoker{store: store, now: time.Now}
}

func (r *Revoker) Revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(r.now()); remaining > 0 {
			ttl = remaining
		}
	}
	return r.store.Set(ctx, revokedKey+claims.ID, "1", ttl)
}

func (r *Revoker) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok, err := r.store.Get(ctx, revokedKey+tokenID)
	return ok, err
}

package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/upb/socialhub/tokens"
)

// DefaultTTL is used when no better bound on a revocation's lifetime is known
const DefaultTTL = 7 * 24 * time.Hour

// Revoker records and checks revoked tokens. Entries only need to outlive the
// tokens they block, so every write carries a TTL.
type Revoker struct {
	store      Store
	defaultTTL time.Duration
	now        func() time.Time
}

// NewRevoker creates a Revoker over store
func NewRevoker(store Store, defaultTTL time.Duration) *Revoker {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Revoker{
		store:      store,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// IsRevoked reports whether token has been revoked for audience
func (r *Revoker) IsRevoked(ctx context.Context, audience tokens.Audience, token string) (bool, error) {
	revoked, err := r.store.Exists(ctx, TokenKey(audience, token))
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return revoked, nil
}

// RevokeToken blacklists a single token until expiresAt. Revoking the same
// token again only refreshes the entry.
func (r *Revoker) RevokeToken(ctx context.Context, audience tokens.Audience, token string, expiresAt time.Time) error {
	if token == "" {
		return errors.New("token is required")
	}

	ttl := r.defaultTTL
	if !expiresAt.IsZero() {
		remaining := expiresAt.Sub(r.now())
		if remaining <= 0 {
			// Already expired, verification rejects it anyway.
			return nil
		}
		ttl = remaining
	}

	if err := r.store.Set(ctx, TokenKey(audience, token), "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeSubject revokes every token of subjectID issued at or before at. The
// instant is stored in milliseconds. JWT iat claims carry whole seconds, so a
// token minted later in the same second as at still reads as revoked. ttl
// should cover the longest token lifetime of the audience; zero uses the
// default.
func (r *Revoker) RevokeSubject(ctx context.Context, audience tokens.Audience, subjectID string, at time.Time, ttl time.Duration) error {
	if subjectID == "" {
		return errors.New("subject id is required")
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	value := strconv.FormatInt(at.UnixMilli(), 10)
	if err := r.store.Set(ctx, SubjectKey(audience, subjectID), value, ttl); err != nil {
		return fmt.Errorf("failed to revoke subject: %w", err)
	}
	return nil
}

// IsSubjectRevoked reports whether a token of subjectID issued at issuedAt is
// covered by a subject revocation
func (r *Revoker) IsSubjectRevoked(ctx context.Context, audience tokens.Audience, subjectID string, issuedAt time.Time) (bool, error) {
	value, err := r.store.Get(ctx, SubjectKey(audience, subjectID))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subject revocation: %w", err)
	}

	revokedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		// Unreadable entries revoke everything.
		return true, nil
	}

	return issuedAt.UnixMilli() <= revokedAt, nil
}

package revocation

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/socialhub/tokens"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	store, err := NewRedisStore(RedisConfig{
		URL:        "redis://" + mr.Addr(),
		PoolSize:   5,
		MaxRetries: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store, mr
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "blacklist:customer:abc", TokenKey(tokens.AudienceCustomer, "abc"))
	assert.Equal(t, "blacklist:admin:abc", TokenKey(tokens.AudienceAdmin, "abc"))
	assert.Equal(t, "blacklist:admin:subject:42", SubjectKey(tokens.AudienceAdmin, "42"))
}

func TestNewRedisStore_Errors(t *testing.T) {
	t.Run("invalid url", func(t *testing.T) {
		_, err := NewRedisStore(RedisConfig{URL: "invalid://url"})
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisStore(RedisConfig{URL: "redis://" + addr})
		assert.Error(t, err)
	})
}

func TestRedisStore_Operations(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	exists, err = store.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	value, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
	assert.Equal(t, time.Minute, mr.TTL("k"))

	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "k"))
	assert.False(t, mr.Exists("k"))

	assert.NoError(t, store.HealthCheck(ctx))
}

func TestRedisStore_FailureIsNotAbsence(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	mr.SetError("ERR backend unavailable")
	defer mr.SetError("")

	_, err := store.Exists(ctx, "k")
	assert.Error(t, err)

	_, err = store.Get(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	assert.Error(t, store.HealthCheck(ctx))
}

func TestRevoker_RevokeToken(t *testing.T) {
	store, mr := setupRedisStore(t)
	revoker := NewRevoker(store, time.Hour)
	ctx := context.Background()

	revoked, err := revoker.IsRevoked(ctx, tokens.AudienceCustomer, "tok")
	require.NoError(t, err)
	assert.False(t, revoked)

	expiresAt := time.Now().Add(30 * time.Minute)
	require.NoError(t, revoker.RevokeToken(ctx, tokens.AudienceCustomer, "tok", expiresAt))

	t.Run("revoked for its audience only", func(t *testing.T) {
		revoked, err := revoker.IsRevoked(ctx, tokens.AudienceCustomer, "tok")
		require.NoError(t, err)
		assert.True(t, revoked)

		revoked, err = revoker.IsRevoked(ctx, tokens.AudienceAdmin, "tok")
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("ttl follows token expiry", func(t *testing.T) {
		ttl := mr.TTL(TokenKey(tokens.AudienceCustomer, "tok"))
		assert.InDelta(t, (30 * time.Minute).Seconds(), ttl.Seconds(), 5)
	})

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, revoker.RevokeToken(ctx, tokens.AudienceCustomer, "tok", expiresAt))

		revoked, err := revoker.IsRevoked(ctx, tokens.AudienceCustomer, "tok")
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.Len(t, mr.Keys(), 1)
	})

	t.Run("entry expires with the token", func(t *testing.T) {
		mr.FastForward(31 * time.Minute)

		revoked, err := revoker.IsRevoked(ctx, tokens.AudienceCustomer, "tok")
		require.NoError(t, err)
		assert.False(t, revoked)
	})
}

func TestRevoker_RevokeToken_Defaults(t *testing.T) {
	store, mr := setupRedisStore(t)
	revoker := NewRevoker(store, 2*time.Hour)
	ctx := context.Background()

	require.NoError(t, revoker.RevokeToken(ctx, tokens.AudienceAdmin, "no-expiry", time.Time{}))
	assert.Equal(t, 2*time.Hour, mr.TTL(TokenKey(tokens.AudienceAdmin, "no-expiry")))

	require.NoError(t, revoker.RevokeToken(ctx, tokens.AudienceAdmin, "expired", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(TokenKey(tokens.AudienceAdmin, "expired")))

	assert.Error(t, revoker.RevokeToken(ctx, tokens.AudienceAdmin, "", time.Time{}))
}

func TestRevoker_RevokeSubject(t *testing.T) {
	store, mr := setupRedisStore(t)
	revoker := NewRevoker(store, time.Hour)
	ctx := context.Background()

	revokedAt := time.Now()
	require.NoError(t, revoker.RevokeSubject(ctx, tokens.AudienceCustomer, "user-1", revokedAt, 0))

	value, err := mr.Get(SubjectKey(tokens.AudienceCustomer, "user-1"))
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(revokedAt.UnixMilli(), 10), value)
	assert.Equal(t, time.Hour, mr.TTL(SubjectKey(tokens.AudienceCustomer, "user-1")))

	tests := []struct {
		name     string
		subject  string
		issuedAt time.Time
		want     bool
	}{
		{"issued before revocation", "user-1", revokedAt.Add(-time.Hour), true},
		{"issued at the revocation instant", "user-1", revokedAt, true},
		{"issued after revocation", "user-1", revokedAt.Add(2 * time.Second), false},
		{"other subject", "user-2", revokedAt.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked, err := revoker.IsSubjectRevoked(ctx, tokens.AudienceCustomer, tt.subject, tt.issuedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, revoked)
		})
	}

	t.Run("audiences are separate", func(t *testing.T) {
		revoked, err := revoker.IsSubjectRevoked(ctx, tokens.AudienceAdmin, "user-1", revokedAt.Add(-time.Hour))
		require.NoError(t, err)
		assert.False(t, revoked)
	})

	t.Run("unreadable entry revokes", func(t *testing.T) {
		require.NoError(t, mr.Set(SubjectKey(tokens.AudienceCustomer, "user-3"), "garbage"))

		revoked, err := revoker.IsSubjectRevoked(ctx, tokens.AudienceCustomer, "user-3", time.Now())
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	assert.Error(t, revoker.RevokeSubject(ctx, tokens.AudienceCustomer, "", revokedAt, 0))
}

func TestRevoker_RevokeSubjectSubSecond(t *testing.T) {
	store, _ := setupRedisStore(t)
	revoker := NewRevoker(store, time.Hour)
	ctx := context.Background()

	revokedAt := time.Unix(1000, int64(100*time.Millisecond))
	require.NoError(t, revoker.RevokeSubject(ctx, tokens.AudienceCustomer, "user-1", revokedAt, 0))

	tests := []struct {
		name     string
		issuedAt time.Time
		want     bool
	}{
		{"whole second iat before revocation", time.Unix(1000, 0), true},
		{"exact instant", revokedAt, true},
		{"later in the same second", time.Unix(1000, int64(900*time.Millisecond)), false},
		{"next second", time.Unix(1001, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked, err := revoker.IsSubjectRevoked(ctx, tokens.AudienceCustomer, "user-1", tt.issuedAt)
			require.NoError(t, err)
			assert.Equal(t, tt.want, revoked)
		})
	}
}

func TestRevoker_StoreFailure(t *testing.T) {
	store, mr := setupRedisStore(t)
	revoker := NewRevoker(store, time.Hour)
	ctx := context.Background()

	mr.SetError("ERR backend unavailable")
	defer mr.SetError("")

	_, err := revoker.IsRevoked(ctx, tokens.AudienceCustomer, "tok")
	assert.Error(t, err)

	_, err = revoker.IsSubjectRevoked(ctx, tokens.AudienceCustomer, "user-1", time.Now())
	assert.Error(t, err)

	assert.Error(t, revoker.RevokeToken(ctx, tokens.AudienceCustomer, "tok", time.Time{}))
}

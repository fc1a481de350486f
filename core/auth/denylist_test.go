package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/user"
)

func TestMemoryDenylist(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	dl := NewMemoryDenylist().(*memoryDenylist)
	dl.now = func() time.Time { return now }

	require.NoError(t, dl.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, dl.Revoke(ctx, "stale", now.Add(-time.Second)))

	revoked, err := dl.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = dl.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	// entries are purged once the token would have expired
	now = now.Add(2 * time.Minute)
	revoked, err = dl.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)
	require.NoError(t, dl.Revoke(ctx, "b", now.Add(time.Minute)))
	assert.Len(t, dl.entries, 1)
}

func TestService_Logout_expiryBoundary(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }

	tokens := NewTokenManager("secret", "darasa", time.Minute)
	tokens.SetClock(clock)
	dl := NewMemoryDenylist().(*memoryDenylist)
	dl.now = clock
	svc := NewService(nil, tokens, dl, nil)

	token, claims, err := tokens.Issue(user.User{ID: "u1", Role: user.RoleStudent})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{name: "before expiry", at: claims.ExpiresAtTime().Add(-time.Second), wantErr: ErrRevokedToken},
		{name: "at expiry", at: claims.ExpiresAtTime(), wantErr: ErrRevokedToken},
		{name: "within expiry second", at: claims.ExpiresAtTime().Add(500 * time.Millisecond), wantErr: ErrRevokedToken},
		{name: "after expiry", at: claims.ExpiresAtTime().Add(time.Second), wantErr: ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now = tt.at
			_, err := svc.Authenticate(ctx, token)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}

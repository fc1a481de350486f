package auth

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core/user"
)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestTokenManager_roundTrip(t *testing.T) {
	mgr := NewTokenManager("secret", "darasa", time.Hour)
	usr := user.User{ID: "u1", Role: user.RoleTeacher}

	token, issued, err := mgr.Issue(usr)
	require.NoError(t, err)

	claims, err := mgr.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.SubjectID())
	assert.Equal(t, user.RoleTeacher, claims.Role)
	assert.Equal(t, issued.Id, claims.Id)
	assert.NotEmpty(t, claims.Id)
	assert.Equal(t, claims.IssuedAt+int64(time.Hour/time.Second), claims.ExpiresAt)
}

func TestTokenManager_expiryBoundary(t *testing.T) {
	issuedAt := time.Unix(1700000000, 0)
	ttl := 10 * time.Minute
	mgr := NewTokenManager("secret", "darasa", ttl)
	mgr.SetClock(fixedClock(issuedAt))

	token, claims, err := mgr.Issue(user.User{ID: "u1", Role: user.RoleStudent})
	require.NoError(t, err)
	exp := issuedAt.Add(ttl)
	assert.Equal(t, exp, claims.ExpiresAtTime())

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"just issued", issuedAt, nil},
		{"one second before expiry", exp.Add(-time.Second), nil},
		{"exactly at expiry", exp, nil},
		{"within the expiry second", exp.Add(999 * time.Millisecond), nil},
		{"one second after expiry", exp.Add(time.Second), ErrExpiredToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mgr.SetClock(fixedClock(tc.now))
			_, err := mgr.Validate(token)
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func TestTokenManager_invalid(t *testing.T) {
	mgr := NewTokenManager("secret", "darasa", time.Hour)
	usr := user.User{ID: "u1", Role: user.RoleAdmin}
	token, _, err := mgr.Issue(usr)
	require.NoError(t, err)

	otherKey, _, err := NewTokenManager("other-secret", "darasa", time.Hour).Issue(usr)
	require.NoError(t, err)
	otherIssuer, _, err := NewTokenManager("secret", "someone-else", time.Hour).Issue(usr)
	require.NoError(t, err)

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{Subject: "u1", Issuer: "darasa", ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Role:           user.RoleAdmin,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	noRoleToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "u1",
		"iss": "darasa",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	// flip a character in the middle of the signature
	i := len(token) - 10
	c := byte('A')
	if token[i] == c {
		c = 'B'
	}
	tampered := token[:i] + string(c) + token[i+1:]

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered signature", tampered},
		{"other key", otherKey},
		{"other issuer", otherIssuer},
		{"alg none", unsigned},
		{"unexpected alg", hs512},
		{"missing role", noRoleToken},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mgr.Validate(tc.token)
			assert.Equal(t, ErrInvalidToken, err)
		})
	}
}

func TestTokenManager_Issue_nonPositiveTTL(t *testing.T) {
	_, _, err := NewTokenManager("secret", "darasa", 0).Issue(user.User{ID: "u1", Role: user.RoleAdmin})
	assert.Error(t, err)
}

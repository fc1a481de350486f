package auth

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/user"
)

var signingMethod = jwt.SigningMethodHS256

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role user.Role `json:"role"`
}

// SubjectID is the ID of the user the token was issued to.
func (c Claims) SubjectID() string { return c.Subject }

// ExpiresAtTime is the expiry second. Validate still accepts the token until that second has fully elapsed.
func (c Claims) ExpiresAtTime() time.Time { return time.Unix(c.ExpiresAt, 0) }

// TokenManager issues and validates stateless session tokens signed with the server key.
type TokenManager struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secretKey, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		key:    []byte(secretKey),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// SetClock replaces the time source; used by tests to pin "now".
func (m *TokenManager) SetClock(now func() time.Time) { m.now = now }

// Issue signs a token embedding the user's ID and role, valid for the configured TTL.
func (m *TokenManager) Issue(usr user.User) (string, *Claims, error) {
	if m.ttl <= 0 {
		return "", nil, errors.New("token TTL must be positive")
	}
	now := m.now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    m.issuer,
			Subject:   usr.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(m.ttl).Unix(),
		},
		Role: usr.Role,
	}

	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(m.key)
	if err != nil {
		return "", nil, errors.Wrap(err, "signing token")
	}
	return ss, claims, nil
}

// Validate checks the token signature and expiry. It never consults a store.
// A token is accepted up to and including its expiry second.
func (m *TokenManager) Validate(token string) (*Claims, error) {
	parser := &jwt.Parser{
		ValidMethods:         []string{signingMethod.Alg()},
		SkipClaimsValidation: true, // expiry is checked below against m.now
	}
	claims := new(Claims)
	tok, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return m.key, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || !claims.Role.IsValid() || claims.ExpiresAt == 0 {
		return nil, ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return nil, ErrInvalidToken
	}
	if m.now().Unix() > claims.ExpiresAt {
		return nil, ErrExpiredToken
	}
	return claims, nil
}

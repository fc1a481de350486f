package auth

import (
	"context"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// compared against when the email is unknown so both failure paths cost one bcrypt comparison
	dummyHash     []byte
	dummyHashOnce sync.Once
)

type Service struct {
	users    user.Service
	tokens   *TokenManager
	denylist Denylist
	validate *validator.Validate
}

func NewService(users user.Service, tokens *TokenManager, denylist Denylist, validate *validator.Validate) *Service {
	if denylist == nil {
		denylist = NewMemoryDenylist()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		denylist: denylist,
		validate: validate,
	}
}

// Register validates nu and persists a new identity. Duplicate emails fail with a *core.ValidationError.
func (svc *Service) Register(ctx context.Context, nu user.NewUser) (user.User, error) {
	if err := nu.Validate(ctx, svc.validate, svc.users); err != nil {
		return user.User{}, err
	}
	usr, err := svc.users.Create(ctx, nu)
	if err != nil {
		return user.User{}, errors.Wrap(err, "registering user")
	}
	return usr, nil
}

// Login verifies the credentials and issues a session token.
// Unknown emails and wrong passwords fail identically with ErrInvalidCredentials.
func (svc *Service) Login(ctx context.Context, email, pwd string) (string, user.User, error) {
	usr, err := svc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return "", user.User{}, errors.Wrap(err, "finding user by email")
		}
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("darasa"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
		return "", user.User{}, ErrInvalidCredentials
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return "", user.User{}, ErrInvalidCredentials
	}

	token, _, err := svc.tokens.Issue(usr)
	if err != nil {
		return "", user.User{}, errors.Wrap(err, "issuing token")
	}
	return token, usr, nil
}

// ValidateToken is a pure function of the token and the server key.
func (svc *Service) ValidateToken(token string) (*Claims, error) {
	return svc.tokens.Validate(token)
}

// Authenticate validates the token and rejects it if it was revoked by Logout.
func (svc *Service) Authenticate(ctx context.Context, token string) (*Claims, error) {
	claims, err := svc.tokens.Validate(token)
	if err != nil {
		return nil, err
	}
	if claims.Id != "" {
		revoked, err := svc.denylist.IsRevoked(ctx, claims.Id)
		if err != nil {
			return nil, errors.Wrap(err, "checking token denylist")
		}
		if revoked {
			return nil, ErrRevokedToken
		}
	}
	return claims, nil
}

// Logout revokes the token described by claims until its natural expiry.
func (svc *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.Id == "" {
		return core.NewValidationError(errors.New("token cannot be revoked"))
	}
	until := claims.ExpiresAtTime().Add(time.Second)
	return errors.Wrap(svc.denylist.Revoke(ctx, claims.Id, until), "revoking token")
}

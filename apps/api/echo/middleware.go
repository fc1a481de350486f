package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/auth"
)

var contextClaimsKey = "claims"

// authMiddleware requires a valid, unrevoked bearer token and stores its claims in the context.
func authMiddleware(svc *auth.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			token, ok := bearerToken(ctx.Request())
			if !ok {
				return errMissingToken
			}
			claims, err := svc.Authenticate(ctx.Request().Context(), token)
			if err != nil {
				return errors.Wrap(err, "authenticating token")
			}
			ctx.Set(contextClaimsKey, claims)
			return next(ctx)
		}
	}
}

// gate lets the request through only if the caller's role may perform `op`.
func gate(op access.Operation) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if err = access.Authorize(claims.Role, op); err != nil {
				return err
			}
			return next(ctx)
		}
	}
}

// bearerToken reads `Authorization: Bearer <token>`; the scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func getContextClaims(ctx echo.Context) (*auth.Claims, error) {
	if claims, ok := ctx.Get(contextClaimsKey).(*auth.Claims); ok {
		return claims, nil
	}
	return nil, errMissingToken
}

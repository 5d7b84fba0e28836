package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/adminkit/authgate"
	"github.com/adminkit/authgate/rbac"
)

type authResultContextKey struct{}

// ResultFromContext returns the authentication result stored by
// [Authenticated], if any.
func ResultFromContext(ctx context.Context) (*authgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authgate.AuthResult)
	return res, ok
}

// Authenticated rejects requests without a valid bearer access token.
// Expired tokens get a distinct message so clients know to refresh
// instead of re-authenticating.
func Authenticated(engine *authgate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, authgate.ErrTokenExpired) {
					http.Error(w, "token expired", http.StatusUnauthorized)
					return
				}
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission authenticates the request and additionally demands
// that the token's permission grants cover resource:action, optionally
// inside a namespace. Unparseable grants never widen access.
func RequirePermission(engine *authgate.Engine, resource, action, namespace string) func(http.Handler) http.Handler {
	authenticate := Authenticated(engine)
	return func(next http.Handler) http.Handler {
		return authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, ok := ResultFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !rbac.AllowedStrings(res.Permissions, resource, action, namespace) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	if token == "" {
		return "", false
	}
	return token, true
}

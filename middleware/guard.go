package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	authcore "github.com/samudra-sahayak/authcore"
	"github.com/samudra-sahayak/authcore/token"
)

type identityContextKey struct{}

// IdentityFromContext returns the identity a guard stored on the request.
func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	ident, ok := ctx.Value(identityContextKey{}).(token.Identity)
	return ident, ok
}

// Guard admits only fully authenticated principals. The resolved identity
// is stored on the request context for the wrapped handler.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, false, nil)
}

// AllowGuest admits authenticated principals, guest tokens, and requests
// with no token at all; the handler inspects the identity kind itself.
func AllowGuest(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, true, nil)
}

// RequireRole admits only authenticated principals whose role claim is in
// roles.
func RequireRole(engine *authcore.Engine, roles ...authcore.Role) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return guard(engine, false, func(r *http.Request, engine *authcore.Engine, ident token.Identity) int {
		if _, ok := allowed[ident.Claims.Role]; !ok {
			return http.StatusForbidden
		}
		return 0
	})
}

// RequireVerifiedOfficial admits officials whose review is complete, plus
// admins. The official check needs the stored record, not just the token,
// so revoking a review takes effect within one access-token lifetime.
func RequireVerifiedOfficial(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, false, func(r *http.Request, engine *authcore.Engine, ident token.Identity) int {
		switch ident.Claims.Role {
		case string(authcore.RoleAdmin):
			return 0
		case string(authcore.RoleOfficial):
			p, err := engine.PrincipalFromIdentity(r.Context(), ident)
			if err != nil {
				return http.StatusUnauthorized
			}
			if !p.OfficialVerified {
				return http.StatusForbidden
			}
			return 0
		default:
			return http.StatusForbidden
		}
	})
}

func guard(engine *authcore.Engine, lenient bool, check func(*http.Request, *authcore.Engine, token.Identity) int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			raw, _ := bearerToken(r.Header.Get("Authorization"))
			ctx := authcore.WithClientIP(r.Context(), ClientIP(r))

			ident, err := engine.Classify(raw)
			if err != nil {
				status := http.StatusUnauthorized
				if errors.Is(err, authcore.ErrTokenExpired) && lenient {
					// A stale guest token degrades to anonymous rather
					// than blocking a public surface.
					ident = token.Identity{Kind: token.KindAnonymous}
					err = nil
				}
				if err != nil {
					http.Error(w, "unauthorized", status)
					return
				}
			}

			if !lenient && ident.Kind != token.KindAuthenticated {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			if check != nil {
				if status := check(r.WithContext(ctx), engine, ident); status != 0 {
					http.Error(w, http.StatusText(status), status)
					return
				}
			}

			ctx = context.WithValue(ctx, identityContextKey{}, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
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

// ClientIP resolves the caller's address for rate-limit keying. Only the
// first X-Forwarded-For hop is trusted; later entries are attacker
// controlled.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i > 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

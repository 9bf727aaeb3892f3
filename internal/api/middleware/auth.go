package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"attendance.service/internal/core"
	"attendance.service/internal/core/model"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type ctxKey string

const ctxClaims ctxKey = "claims"

// TokenParser verifies a raw session token.
type TokenParser interface {
	Parse(raw string) (*core.Claims, error)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func bearerToken(r *http.Request) (string, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		// Browsers cannot set headers on websocket upgrades.
		if websocket.IsWebSocketUpgrade(r) {
			if tok := r.URL.Query().Get("token"); tok != "" {
				return tok, nil
			}
		}
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	if parts[1] == "" {
		return "", errors.New("empty token")
	}
	return parts[1], nil
}

// AuthJWT validates the session token and puts its claims in the context.
func AuthJWT(tokens TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "No hay token, permiso denegado"})
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				log.Ctx(r.Context()).Debug().Err(err).Msg("Rejected token")
				writeJSON(w, http.StatusUnauthorized, map[string]string{"msg": "Token no válido o expirado"})
				return
			}

			ctx := context.WithValue(r.Context(), ctxClaims, claims)
			l := log.Ctx(ctx).With().Int64("user_id", claims.UserID).Logger()
			ctx = l.WithContext(ctx)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRoles lets the request through when the caller has one of allowed.
func RequireRoles(allowed ...model.Role) func(http.Handler) http.Handler {
	set := map[model.Role]struct{}{}
	for _, a := range allowed {
		set[a] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if ok {
				if _, permitted := set[claims.Role]; permitted {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, map[string]string{"msg": "Acceso denegado"})
		})
	}
}

// ClaimsFromContext returns the claims AuthJWT stored.
func ClaimsFromContext(ctx context.Context) (*core.Claims, bool) {
	c, ok := ctx.Value(ctxClaims).(*core.Claims)
	return c, ok
}

// WithClaims stores claims in ctx. Handler tests use it to skip the token step.
func WithClaims(ctx context.Context, c *core.Claims) context.Context {
	return context.WithValue(ctx, ctxClaims, c)
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/psicopps/ppsadmin/internal/auth"
)

// RequireAuth validates the Authorization bearer token and populates
// AuthContext for downstream handlers.
func RequireAuth(issuer *auth.TokenIssuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := bearerClaims(r, issuer)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
			ac := auth.AuthContext{
				UserID: userID,
				Email:  claims.Email,
				Rol:    claims.Rol,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuthOrCronKey accepts either a valid bearer token or the shared cron
// secret in X-API-Key. The scheduler that triggers automatic backups
// authenticates with the key, admins with their token.
func RequireAuthOrCronKey(issuer *auth.TokenIssuer, cronSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cronSecret != "" {
				key := r.Header.Get("X-API-Key")
				if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(cronSecret)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			claims, ok := bearerClaims(r, issuer)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			userID, _ := strconv.ParseInt(claims.Subject, 10, 64)
			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				UserID: userID,
				Email:  claims.Email,
				Rol:    claims.Rol,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerClaims(r *http.Request, issuer *auth.TokenIssuer) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return nil, false
	}
	claims, err := issuer.Verify(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/alxtravel/travel-booking-api/internal/auth"
	"github.com/alxtravel/travel-booking-api/internal/handler"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondError(w, http.StatusUnauthorized, "Authorization header required", nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondError(w, http.StatusUnauthorized, "Token is invalid or expired", nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				handler.RespondError(w, http.StatusUnauthorized, "Token is invalid or expired", nil)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

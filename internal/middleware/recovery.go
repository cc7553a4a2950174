package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/alxtravel/travel-booking-api/internal/handler"
	"github.com/alxtravel/travel-booking-api/internal/logging"
)

func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log := logging.FromContext(r.Context())
				log.Error("panic recovered", "error", err, "stack", string(debug.Stack()))
				handler.RespondError(w, http.StatusInternalServerError, "An unexpected error occurred", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

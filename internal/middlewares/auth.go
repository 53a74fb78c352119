package middlewares

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

//go:generate mockgen -source=auth.go -destination=mock_auth_test.go -package=middlewares

// SessionGetter defines the minimal interface needed by the middleware
type SessionGetter interface {
	Current() models.Session
}

// SessionMiddleware returns a middleware that rejects requests while no user is logged in
func SessionMiddleware(sessionGetter SessionGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessionGetter.Current().LoggedIn {
				logger.Log.Warnw("request without session", "uri", r.RequestURI)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(models.RechargeErrorResponse{
					Error: "Please log in to recharge",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

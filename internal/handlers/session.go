package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

//go:generate mockgen -source=session.go -destination=mock_session_test.go -package=handlers

// SessionGetter defines only the methods needed by this handler.
type SessionGetter interface {
	Current() models.Session // Returns the last published session
}

// NewGetSessionHandler returns an HTTP handler reporting the current session.
// @Summary Get session
// @Description Returns whether the client is logged in and the active user id
// @Tags session
// @Produce json
// @Success 200 {object} models.Session "Current session"
// @Router /session [get]
func NewGetSessionHandler(sessionGetter SessionGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(sessionGetter.Current())
	}
}

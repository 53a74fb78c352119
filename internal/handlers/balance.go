package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
	"github.com/sbilibin2017/gw-recharge-client/internal/services"
)

//go:generate mockgen -source=balance.go -destination=mock_balance_test.go -package=handlers

// BalanceViewer defines the interface that the balance service must implement.
type BalanceViewer interface {
	Snapshot() models.Balance                                   // Returns the latest balance fields
	ReadConsistent(ctx context.Context) (models.Balance, error) // Returns a snapshot bound to one session
}

// NewGetBalanceHandler returns an HTTP handler for the live balance.
// With consistent=true the snapshot is rejected if the session changes
// while it is read.
// @Summary Get balance
// @Description Returns the live balance of the logged-in user
// @Tags balance
// @Produce json
// @Param consistent query bool false "Reject snapshots taken across a session change"
// @Success 200 {object} models.Balance "User balance"
// @Failure 401 {object} models.BalanceErrorResponse "Not logged in"
// @Failure 409 {object} models.BalanceErrorResponse "Session changed during read"
// @Router /balance [get]
func NewGetBalanceHandler(balanceViewer BalanceViewer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Query().Get("consistent") == "true" {
			balance, err := balanceViewer.ReadConsistent(r.Context())
			if err != nil {
				logger.Log.Warnw("inconsistent balance read", "error", err)
				status := http.StatusInternalServerError
				switch {
				case errors.Is(err, services.ErrSessionChanged):
					status = http.StatusConflict
				case errors.Is(err, services.ErrNotLoggedIn):
					status = http.StatusUnauthorized
				}
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(models.BalanceErrorResponse{
					Error: services.Message(err),
				})
				return
			}
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(balance)
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(balanceViewer.Snapshot())
	}
}

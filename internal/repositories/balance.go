package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// UserBalanceRepository reads balance fields of user rows.
type UserBalanceRepository struct {
	db *sqlx.DB
}

// NewUserBalanceRepository creates a new UserBalanceRepository.
func NewUserBalanceRepository(db *sqlx.DB) *UserBalanceRepository {
	return &UserBalanceRepository{db: db}
}

// GetBalance returns the balance of userID. Null columns are returned as 0.
func (r *UserBalanceRepository) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	query := `
		SELECT
			COALESCE(balance, 0)::float8 AS balance,
			COALESCE(available_balance, 0)::float8 AS available_balance
		FROM users
		WHERE id = $1
	`

	var balance models.Balance
	err := r.db.GetContext(ctx, &balance, query, userID)

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{userID},
		"result", balance,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &balance, nil
}

package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// RechargeWriteRepository stores recharge requests.
type RechargeWriteRepository struct {
	db *sqlx.DB
}

// NewRechargeWriteRepository creates a new RechargeWriteRepository.
func NewRechargeWriteRepository(db *sqlx.DB) *RechargeWriteRepository {
	return &RechargeWriteRepository{db: db}
}

// Save inserts a single recharge row.
func (r *RechargeWriteRepository) Save(ctx context.Context, recharge models.Recharge) error {
	query := `
		INSERT INTO recharges (user_id, channel_id, amount, tx_id, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id
	`

	args := []any{recharge.UserID, recharge.ChannelID, recharge.Amount, recharge.TxID, recharge.Status}

	var id int64
	err := r.db.GetContext(ctx, &id, query, args...)

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", id,
		"error", err,
	)

	return err
}

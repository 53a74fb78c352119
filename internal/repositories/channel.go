package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// ChannelReadRepository lists payment channels.
type ChannelReadRepository struct {
	db *sqlx.DB
}

// NewChannelReadRepository creates a new ChannelReadRepository.
func NewChannelReadRepository(db *sqlx.DB) *ChannelReadRepository {
	return &ChannelReadRepository{db: db}
}

// List returns channels matching filter, ordered by id ascending or, with
// NewestFirst, by created_at descending.
func (r *ChannelReadRepository) List(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error) {
	query := `
		SELECT
			id,
			COALESCE(currency_name, '') AS currency_name,
			COALESCE(wallet_address, '') AS wallet_address,
			COALESCE(upi_id, '') AS upi_id,
			COALESCE(bank_name, '') AS bank_name,
			COALESCE(bank_ac, '') AS bank_ac,
			COALESCE(bank_ifsc, '') AS bank_ifsc,
			COALESCE(status, '') AS status,
			created_at
		FROM channels
	`

	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	if filter.NewestFirst {
		query += ` ORDER BY created_at DESC, id DESC`
	} else {
		query += ` ORDER BY id ASC`
	}

	var channels []models.Channel
	err := r.db.SelectContext(ctx, &channels, query, args...)

	// Log query, args, result, error
	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", len(channels),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return channels, nil
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RechargeStatusPending is the only status a client ever writes.
const RechargeStatusPending = "pending"

// Recharge is a funding request submitted by the client.
type Recharge struct {
	UserID    string          `json:"user_id" db:"user_id"`       // Submitting user
	ChannelID int64           `json:"channel_id" db:"channel_id"` // Channel the user paid into
	Amount    decimal.Decimal `json:"amount" db:"amount"`         // Claimed deposit amount
	TxID      string          `json:"tx_id" db:"tx_id"`           // Trimmed transaction hash
	Status    string          `json:"status" db:"status"`         // Always pending from the client
}

// RechargeEvent is published after a recharge request is stored.
type RechargeEvent struct {
	EventID   string  `json:"event_id"`
	Timestamp int64   `json:"timestamp"`
	UserID    string  `json:"user_id"`
	ChannelID int64   `json:"channel_id"`
	Amount    float64 `json:"amount"`
	TxID      string  `json:"tx_id"`
	Operation string  `json:"operation"`
}

// NewRechargeEvent builds the event for a stored recharge.
func NewRechargeEvent(id string, at time.Time, r Recharge) RechargeEvent {
	return RechargeEvent{
		EventID:   id,
		Timestamp: at.Unix(),
		UserID:    r.UserID,
		ChannelID: r.ChannelID,
		Amount:    r.Amount.InexactFloat64(),
		TxID:      r.TxID,
		Operation: "recharge_submitted",
	}
}

// RechargeForm is the state of the recharge form.
// swagger:model RechargeForm
type RechargeForm struct {
	// Selected payment method
	// example: USDT
	Method Method `json:"method"`

	// Selected channel, if any
	Channel *Channel `json:"channel,omitempty"`

	// Amount as typed
	// example: 10
	Amount string `json:"amount"`

	// Transaction hash as typed
	// example: 0xabc
	TxID string `json:"tx_id"`

	// Whether a submission is in flight
	Submitting bool `json:"submitting"`

	// Last validation or submission error
	Error string `json:"error,omitempty"`

	// Quick amount buttons
	QuickAmounts []int `json:"quick_amounts"`

	// Whether the submit action is enabled
	CanSubmit bool `json:"can_submit"`
}

// SelectMethodRequest represents the JSON body for switching payment method
// swagger:model SelectMethodRequest
type SelectMethodRequest struct {
	// required: true
	// example: UPI
	Method string `json:"method"`
}

// SelectChannelRequest represents the JSON body for selecting a channel
// swagger:model SelectChannelRequest
type SelectChannelRequest struct {
	// required: true
	// example: 3
	ChannelID int64 `json:"channel_id"`
}

// UpdateFormRequest represents the JSON body for editing form fields.
// Absent fields are left unchanged.
// swagger:model UpdateFormRequest
type UpdateFormRequest struct {
	// example: 10
	Amount *string `json:"amount,omitempty"`

	// example: 0xabc
	TxID *string `json:"tx_id,omitempty"`

	// Quick amount to apply
	// example: 50
	QuickAmount *int `json:"quick_amount,omitempty"`
}

// RechargeResponse represents a successful submission
// swagger:model RechargeResponse
type RechargeResponse struct {
	// example: Recharge request submitted successfully! Awaiting confirmation.
	Message string `json:"message"`
}

// RechargeErrorResponse represents an error response for recharge operations
// swagger:model RechargeErrorResponse
type RechargeErrorResponse struct {
	// example: Please select a network.
	Error string `json:"error"`
}

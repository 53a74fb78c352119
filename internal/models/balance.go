package models

// Balance is the live view of a user's funds.
// swagger:model Balance
type Balance struct {
	// Total balance
	// example: 120.5
	Balance float64 `json:"balance" db:"balance"`

	// Balance available for trading and withdrawal
	// example: 100.0
	AvailableBalance float64 `json:"available_balance" db:"available_balance"`
}

// Row columns of the users table carrying balance fields.
const (
	FieldBalance          = "balance"
	FieldAvailableBalance = "available_balance"
)

// BalanceErrorResponse represents an error response when reading the balance
// swagger:model BalanceErrorResponse
type BalanceErrorResponse struct {
	// Error message
	// example: Please log in to recharge
	Error string `json:"error"`
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Channel statuses.
const (
	ChannelActive   = "active"
	ChannelInactive = "inactive"
)

// Method is a payment method category a user funds through.
type Method string

// Supported payment methods.
const (
	MethodUSDT Method = "USDT"
	MethodUPI  Method = "UPI"
	MethodBank Method = "BANK"
)

// Methods lists the payment methods in display order.
var Methods = []Method{MethodUSDT, MethodUPI, MethodBank}

// ParseMethod parses a method name case-insensitively.
func ParseMethod(s string) (Method, bool) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, true
		}
	}
	return "", false
}

// Channel is a configured payment channel owned by the remote store.
// swagger:model Channel
type Channel struct {
	// Channel identifier
	// example: 3
	ID int64 `json:"id" db:"id"`

	// Currency or method label
	// example: USDT-TRC20
	CurrencyName string `json:"currency_name" db:"currency_name"`

	// Crypto wallet address
	// example: TQ5Nk2jZ1vD7...
	WalletAddress string `json:"wallet_address,omitempty" db:"wallet_address"`

	// UPI identifier
	// example: pay@okaxis
	UPIID string `json:"upi_id,omitempty" db:"upi_id"`

	// Bank account holder name
	BankName string `json:"bank_name,omitempty" db:"bank_name"`

	// Bank account number
	BankAC string `json:"bank_ac,omitempty" db:"bank_ac"`

	// Bank IFSC code
	BankIFSC string `json:"bank_ifsc,omitempty" db:"bank_ifsc"`

	// Channel status
	// example: active
	Status string `json:"status,omitempty" db:"status"`

	// Creation timestamp
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
}

// Active reports whether the channel can be selected for funding.
func (c Channel) Active() bool {
	return c.Status == ChannelActive
}

// Matches reports whether the channel belongs to method. The currency label
// is compared case-insensitively; UPI and BANK also match on their detail
// fields.
func (c Channel) Matches(method Method) bool {
	if c.CurrencyName == "" {
		return false
	}
	name := strings.ToUpper(c.CurrencyName)

	switch method {
	case MethodUSDT:
		return strings.Contains(name, "USDT")
	case MethodUPI:
		return strings.Contains(name, "UPI") || c.UPIID != ""
	case MethodBank:
		return strings.Contains(name, "BANK") || strings.Contains(name, "ACCOUNT") || c.BankName != ""
	default:
		return true
	}
}

// Badge returns the single-letter badge shown next to the channel.
func (c Channel) Badge() string {
	name := strings.ToUpper(c.CurrencyName)
	switch {
	case strings.Contains(name, "TRC20"):
		return "T"
	case strings.Contains(name, "ERC20"):
		return "E"
	case strings.Contains(name, "UPI"):
		return "U"
	case strings.Contains(name, "BANK"):
		return "B"
	default:
		return "P"
	}
}

// PaymentDetails returns the text a user copies to pay into the channel.
func (c Channel) PaymentDetails() string {
	name := strings.ToUpper(c.CurrencyName)
	switch {
	case strings.Contains(name, "BANK") || strings.Contains(name, "ACCOUNT"):
		return fmt.Sprintf("NAME: %s\nAC: %s\nIFSC: %s", c.BankName, c.BankAC, c.BankIFSC)
	case strings.Contains(name, "UPI"):
		return c.UPIID
	default:
		return c.WalletAddress
	}
}

// ChannelScope selects which channels a directory refresh loads.
type ChannelScope int

const (
	// ScopeFunding loads active channels ordered by id.
	ScopeFunding ChannelScope = iota
	// ScopeAdmin loads every channel, newest first.
	ScopeAdmin
)

func (s ChannelScope) String() string {
	if s == ScopeAdmin {
		return "admin"
	}
	return "funding"
}

// Filter returns the listing filter for the scope.
func (s ChannelScope) Filter() ChannelFilter {
	if s == ScopeAdmin {
		return ChannelFilter{NewestFirst: true, IncludeCreated: true}
	}
	return ChannelFilter{Status: ChannelActive}
}

// ChannelFilter narrows a channel listing.
type ChannelFilter struct {
	Status         string // Empty means any status
	NewestFirst    bool   // Order by created_at desc instead of id asc
	IncludeCreated bool   // Project created_at
}

// ChannelView is a channel as rendered by the local API.
// swagger:model ChannelView
type ChannelView struct {
	Channel

	// Single-letter badge
	// example: T
	Badge string `json:"badge"`

	// Copyable payment details
	PaymentDetails string `json:"payment_details"`
}

// ChannelsResponse represents a filtered channel listing
// swagger:model ChannelsResponse
type ChannelsResponse struct {
	// Selected method
	// example: USDT
	Method Method `json:"method"`

	// Channels matching the method
	Channels []ChannelView `json:"channels"`

	// Load error, if the last refresh failed
	// example: Failed to load payment channels.
	Error string `json:"error,omitempty"`
}

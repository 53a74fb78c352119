package facades

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// ErrRowNotFound is returned when a single-row read matches no row.
var ErrRowNotFound = errors.New("row not found")

const (
	channelColumns        = "id,currency_name,wallet_address,upi_id,bank_name,bank_ac,bank_ifsc,status"
	channelColumnsCreated = channelColumns + ",created_at"
)

// PostgRESTFacade reads and writes the remote store through its PostgREST API.
type PostgRESTFacade struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPostgRESTFacade creates a facade for the project at baseURL. A nil
// client uses one with a 30s timeout.
func NewPostgRESTFacade(baseURL, apiKey string, client *http.Client) *PostgRESTFacade {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &PostgRESTFacade{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

// GetBalance fetches the balance fields of one user row. Null fields are 0.
func (f *PostgRESTFacade) GetBalance(ctx context.Context, userID string) (*models.Balance, error) {
	params := url.Values{}
	params.Set("select", "balance,available_balance")
	params.Set("id", "eq."+userID)

	var row struct {
		Balance          any `json:"balance"`
		AvailableBalance any `json:"available_balance"`
	}
	if err := f.get(ctx, "users", params, true, &row); err != nil {
		logger.Log.Errorw("failed to fetch balance via PostgREST", "user_id", userID, "error", err)
		return nil, err
	}

	return &models.Balance{
		Balance:          models.ToFloat(row.Balance),
		AvailableBalance: models.ToFloat(row.AvailableBalance),
	}, nil
}

type channelRow struct {
	ID            int64      `json:"id"`
	CurrencyName  *string    `json:"currency_name"`
	WalletAddress *string    `json:"wallet_address"`
	UPIID         *string    `json:"upi_id"`
	BankName      *string    `json:"bank_name"`
	BankAC        *string    `json:"bank_ac"`
	BankIFSC      *string    `json:"bank_ifsc"`
	Status        *string    `json:"status"`
	CreatedAt     *time.Time `json:"created_at"`
}

func (r channelRow) channel() models.Channel {
	ch := models.Channel{
		ID:            r.ID,
		CurrencyName:  deref(r.CurrencyName),
		WalletAddress: deref(r.WalletAddress),
		UPIID:         deref(r.UPIID),
		BankName:      deref(r.BankName),
		BankAC:        deref(r.BankAC),
		BankIFSC:      deref(r.BankIFSC),
		Status:        deref(r.Status),
	}
	if r.CreatedAt != nil {
		ch.CreatedAt = *r.CreatedAt
	}
	return ch
}

// List returns channels matching filter.
func (f *PostgRESTFacade) List(ctx context.Context, filter models.ChannelFilter) ([]models.Channel, error) {
	params := url.Values{}
	if filter.IncludeCreated {
		params.Set("select", channelColumnsCreated)
	} else {
		params.Set("select", channelColumns)
	}
	if filter.Status != "" {
		params.Set("status", "eq."+filter.Status)
	}
	if filter.NewestFirst {
		params.Set("order", "created_at.desc,id.desc")
	} else {
		params.Set("order", "id.asc")
	}

	var rows []channelRow
	if err := f.get(ctx, "channels", params, false, &rows); err != nil {
		logger.Log.Errorw("failed to list channels via PostgREST", "filter", filter, "error", err)
		return nil, err
	}

	channels := make([]models.Channel, 0, len(rows))
	for _, r := range rows {
		channels = append(channels, r.channel())
	}
	return channels, nil
}

// Save inserts one recharge row.
func (f *PostgRESTFacade) Save(ctx context.Context, recharge models.Recharge) error {
	body, err := json.Marshal(recharge)
	if err != nil {
		return fmt.Errorf("marshal recharge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/rest/v1/recharges", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	f.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	if _, err := f.do(req); err != nil {
		logger.Log.Errorw("failed to insert recharge via PostgREST", "user_id", recharge.UserID, "channel_id", recharge.ChannelID, "error", err)
		return err
	}
	return nil
}

func (f *PostgRESTFacade) get(ctx context.Context, table string, params url.Values, single bool, dst any) error {
	reqURL := fmt.Sprintf("%s/rest/v1/%s?%s", f.baseURL, table, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if single {
		req.Header.Set("Accept", "application/vnd.pgrst.object+json")
	}
	f.setHeaders(req)

	body, err := f.do(req)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", table, err)
	}
	return nil
}

func (f *PostgRESTFacade) setHeaders(req *http.Request) {
	req.Header.Set("apikey", f.apiKey)
	req.Header.Set("Authorization", "Bearer "+f.apiKey)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
}

func (f *PostgRESTFacade) do(req *http.Request) ([]byte, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, responseError(resp.StatusCode, body)
	}
	return body, nil
}

// responseError converts a PostgREST error body into an error.
func responseError(status int, body []byte) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &errResp)

	// PGRST116: a single-object request matched zero (or many) rows.
	if status == http.StatusNotAcceptable && errResp.Code == "PGRST116" {
		return ErrRowNotFound
	}
	if errResp.Message != "" {
		return fmt.Errorf("postgrest error %d: %s", status, errResp.Message)
	}
	return fmt.Errorf("postgrest error: status %d", status)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

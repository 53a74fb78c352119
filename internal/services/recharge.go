package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/metrics"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=recharge.go -destination=mock_recharge_test.go -package=services

var (
	// ErrNotLoggedIn is returned when no user is logged in.
	ErrNotLoggedIn = errors.New("must log in")
	// ErrNoChannel is returned when no channel is selected.
	ErrNoChannel = errors.New("select a network")
	// ErrAmountTooSmall is returned when the amount is not a number of at least 1.
	ErrAmountTooSmall = errors.New("minimum recharge is 1")
	// ErrAmountTooLarge is returned when the amount does not fit a stored recharge.
	ErrAmountTooLarge = errors.New("amount too large")
	// ErrNoTxID is returned when the transaction hash is blank.
	ErrNoTxID = errors.New("enter transaction hash")
	// ErrSubmitInProgress is returned while a submission is in flight.
	ErrSubmitInProgress = errors.New("submission in progress")
	// ErrSubmitFailed is returned when the remote store rejects the insert.
	ErrSubmitFailed = errors.New("submission failed")
	// ErrChannelInactive is returned when selecting an inactive channel.
	ErrChannelInactive = errors.New("channel is not active")
	// ErrChannelMethodMismatch is returned when the channel does not belong to the selected method.
	ErrChannelMethodMismatch = errors.New("channel does not match payment method")
	// ErrUnknownQuickAmount is returned for a quick amount that is not offered.
	ErrUnknownQuickAmount = errors.New("unknown quick amount")
)

// SuccessMessage is shown after a recharge request is stored.
const SuccessMessage = "Recharge request submitted successfully! Awaiting confirmation."

// QuickAmounts are the preset amounts offered on the form.
var QuickAmounts = []int{10, 50, 100, 500}

var (
	minRecharge = decimal.NewFromInt(1)
	// maxRecharge is the first value a NUMERIC(20,2) column cannot hold.
	maxRecharge = decimal.New(1, 18)
)

// maxAmountLen bounds the amount text accepted for parsing.
const maxAmountLen = 32

var messages = []struct {
	err  error
	text string
}{
	{ErrNotLoggedIn, "Please log in first."},
	{ErrNoChannel, "Please select a network."},
	{ErrAmountTooSmall, "Minimum recharge is 1 USDT."},
	{ErrAmountTooLarge, "Amount is too large."},
	{ErrNoTxID, "Please enter the transaction hash (tx_id)."},
	{ErrSubmitInProgress, "Submission in progress, please wait."},
	{ErrSubmitFailed, "Submission failed. Please check and try again."},
	{ErrChannelsUnavailable, "Failed to load payment channels."},
	{ErrChannelInactive, "This channel is not available."},
	{ErrChannelMethodMismatch, "This channel does not support the selected payment method."},
	{ErrUnknownQuickAmount, "Unknown quick amount."},
	{ErrSessionChanged, "Your session changed, please try again."},
}

// Message returns the user-facing text for err. Unknown errors map to the
// generic submission failure text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.text
		}
	}
	return "Submission failed. Please check and try again."
}

// SessionProvider returns the current session.
type SessionProvider interface {
	Current() models.Session // Returns the last published session
}

// RechargeWriter stores recharge requests.
type RechargeWriter interface {
	Save(ctx context.Context, recharge models.Recharge) error // Inserts one recharge row
}

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// RechargeService is the recharge form state machine. It validates the form
// and inserts at most one recharge request per submission.
type RechargeService struct {
	session     SessionProvider
	writer      RechargeWriter
	kafkaWriter KafkaWriter

	mu         sync.Mutex
	method     models.Method
	channel    *models.Channel
	amount     string
	txID       string
	submitting bool
	lastErr    error
}

// NewRechargeService creates a RechargeService with an empty USDT form.
func NewRechargeService(session SessionProvider, writer RechargeWriter, kafkaWriter KafkaWriter) *RechargeService {
	return &RechargeService{
		session:     session,
		writer:      writer,
		kafkaWriter: kafkaWriter,
		method:      models.MethodUSDT,
	}
}

// Form returns a snapshot of the form.
func (s *RechargeService) Form() models.RechargeForm {
	s.mu.Lock()
	defer s.mu.Unlock()

	form := models.RechargeForm{
		Method:       s.method,
		Amount:       s.amount,
		TxID:         s.txID,
		Submitting:   s.submitting,
		Error:        Message(s.lastErr),
		QuickAmounts: append([]int(nil), QuickAmounts...),
	}
	if s.channel != nil {
		ch := *s.channel
		form.Channel = &ch
	}
	return form
}

// SelectMethod switches the payment method and clears the selected channel.
func (s *RechargeService) SelectMethod(method models.Method) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInProgress
	}
	s.method = method
	s.channel = nil
	return nil
}

// SelectChannel selects an active channel of the current method.
func (s *RechargeService) SelectChannel(ch models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInProgress
	}
	if !ch.Active() {
		return ErrChannelInactive
	}
	if !ch.Matches(s.method) {
		return ErrChannelMethodMismatch
	}
	s.channel = &ch
	return nil
}

// SetAmount sets the amount text as typed.
func (s *RechargeService) SetAmount(amount string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInProgress
	}
	s.amount = amount
	return nil
}

// SetTxID sets the transaction hash as typed.
func (s *RechargeService) SetTxID(txID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return ErrSubmitInProgress
	}
	s.txID = txID
	return nil
}

// ApplyQuickAmount sets the amount to one of QuickAmounts.
func (s *RechargeService) ApplyQuickAmount(n int) error {
	for _, q := range QuickAmounts {
		if q == n {
			return s.SetAmount(fmt.Sprint(n))
		}
	}
	return ErrUnknownQuickAmount
}

// CanSubmit reports whether the submit action should be enabled. fetching is
// whether the channel list is loading.
func (s *RechargeService) CanSubmit(fetching bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.submitting &&
		!fetching &&
		s.channel != nil &&
		s.amount != "" &&
		strings.TrimSpace(s.txID) != ""
}

// Submit validates the form and inserts one pending recharge request. On
// success the amount, tx id and channel are cleared; on failure they are kept.
func (s *RechargeService) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		metrics.RechargeSubmissions.WithLabelValues("in_progress").Inc()
		return ErrSubmitInProgress
	}

	recharge, err := s.validate()
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		metrics.RechargeSubmissions.WithLabelValues("invalid").Inc()
		return err
	}
	s.submitting = true
	s.lastErr = nil
	s.mu.Unlock()

	err = s.writer.Save(ctx, recharge)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.lastErr = ErrSubmitFailed
		s.mu.Unlock()
		metrics.RechargeSubmissions.WithLabelValues("failed").Inc()
		logger.Log.Errorw("failed to save recharge", "user_id", recharge.UserID, "channel_id", recharge.ChannelID, "error", err)
		return fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	s.amount = ""
	s.txID = ""
	s.channel = nil
	s.mu.Unlock()

	metrics.RechargeSubmissions.WithLabelValues("ok").Inc()
	logger.Log.Infow("recharge submitted", "user_id", recharge.UserID, "channel_id", recharge.ChannelID, "amount", recharge.Amount.String())

	s.publishRecharge(ctx, models.NewRechargeEvent(uuid.NewString(), time.Now(), recharge))
	return nil
}

// validate builds the recharge from the form. Checks run in a fixed order and
// the first failure wins. Must be called with s.mu held.
func (s *RechargeService) validate() (models.Recharge, error) {
	sess := s.session.Current()
	if !sess.LoggedIn || sess.UserID == "" {
		return models.Recharge{}, ErrNotLoggedIn
	}

	if s.channel == nil {
		return models.Recharge{}, ErrNoChannel
	}

	amount, err := parseAmount(s.amount)
	if err != nil {
		return models.Recharge{}, err
	}

	txID := strings.TrimSpace(s.txID)
	if txID == "" {
		return models.Recharge{}, ErrNoTxID
	}

	return models.Recharge{
		UserID:    sess.UserID,
		ChannelID: s.channel.ID,
		Amount:    amount,
		TxID:      txID,
		Status:    models.RechargeStatusPending,
	}, nil
}

// parseAmount parses a recharge amount in [minRecharge, maxRecharge).
// The exponent is bounded before any comparison, since comparing rescales
// both operands to the smaller exponent.
func parseAmount(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxAmountLen {
		return decimal.Decimal{}, ErrAmountTooLarge
	}

	amount, err := decimal.NewFromString(text)
	if err != nil || amount.Sign() <= 0 {
		return decimal.Decimal{}, ErrAmountTooSmall
	}

	// The coefficient has at most maxAmountLen digits, so an exponent below
	// -maxAmountLen means a value under 1.
	switch exp := amount.Exponent(); {
	case exp > 18:
		return decimal.Decimal{}, ErrAmountTooLarge
	case exp < -maxAmountLen:
		return decimal.Decimal{}, ErrAmountTooSmall
	}

	if amount.LessThan(minRecharge) {
		return decimal.Decimal{}, ErrAmountTooSmall
	}
	if !amount.LessThan(maxRecharge) {
		return decimal.Decimal{}, ErrAmountTooLarge
	}
	return amount, nil
}

// publishRecharge publishes a stored recharge to Kafka.
func (s *RechargeService) publishRecharge(ctx context.Context, event models.RechargeEvent) {
	if s.kafkaWriter == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "event_id", event.EventID)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal recharge event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.UserID),
		Value: data,
	}

	if err := s.kafkaWriter.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish recharge event to Kafka", "event_id", event.EventID, "error", err)
	} else {
		logger.Log.Infow("Recharge event published to Kafka", "event_id", event.EventID, "amount", event.Amount)
	}
}

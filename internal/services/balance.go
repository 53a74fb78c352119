package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/metrics"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

//go:generate mockgen -source=balance.go -destination=mock_balance_test.go -package=services

// usersTable is the table holding balance rows.
const usersTable = "users"

// BalanceReader fetches a user's balance row.
type BalanceReader interface {
	GetBalance(ctx context.Context, userID string) (*models.Balance, error) // Returns balance and available balance, nulls as 0
}

// RowSubscriber delivers UPDATE events for rows where column equals value.
type RowSubscriber interface {
	SubscribeRow(ctx context.Context, table, column, value string, handler func(models.RowChange)) (release func(), err error) // Returns an idempotent release func
}

// balanceFields lists the live-subscribed fields with the reducer that
// replaces only that field.
var balanceFields = []struct {
	name   string
	reduce func(b *models.Balance, v float64)
}{
	{models.FieldBalance, func(b *models.Balance, v float64) { b.Balance = v }},
	{models.FieldAvailableBalance, func(b *models.Balance, v float64) { b.AvailableBalance = v }},
}

// ErrSessionChanged is returned when the session moves to another user while
// a balance read is in flight.
var ErrSessionChanged = errors.New("session changed")

var errEmptyBalance = errors.New("empty balance row")

// BalanceSyncService keeps the balance of the active session user current
// with one live subscription per field and one fetch per session transition.
type BalanceSyncService struct {
	reader     BalanceReader
	subscriber RowSubscriber

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	userID  string
	gen     uint64 // Incremented on every transition
	balance models.Balance
	release []func()
	closed  bool
}

// NewBalanceSyncService creates a BalanceSyncService with no active user.
func NewBalanceSyncService(reader BalanceReader, subscriber RowSubscriber) *BalanceSyncService {
	ctx, cancel := context.WithCancel(context.Background())
	return &BalanceSyncService{
		reader:     reader,
		subscriber: subscriber,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// OnSession applies a session transition. Sessions with the same user id as
// the active one are ignored.
func (s *BalanceSyncService) OnSession(sess models.Session) {
	userID := ""
	if sess.LoggedIn {
		userID = sess.UserID
	}

	s.mu.Lock()
	if s.closed || userID == s.userID {
		s.mu.Unlock()
		return
	}
	prev := s.userID
	release := s.release
	s.release = nil
	s.userID = userID
	s.gen++
	gen := s.gen
	s.balance = models.Balance{}
	s.mu.Unlock()

	releaseAll(release)
	metrics.SessionTransitions.Inc()
	logger.Log.Infow("balance session transition", "user_id", userID, "previous_user_id", prev)

	if userID == "" {
		return
	}

	s.wg.Add(1)
	go s.start(gen, userID)
}

func (s *BalanceSyncService) start(gen uint64, userID string) {
	defer s.wg.Done()

	// Subscribe before fetching so no update committed after the fetch is missed.
	for _, field := range balanceFields {
		field := field
		release, err := s.subscriber.SubscribeRow(s.ctx, usersTable, "id", userID, func(change models.RowChange) {
			s.applyLive(gen, field.name, field.reduce, change)
		})
		if err != nil {
			logger.Log.Errorw("failed to subscribe to balance field", "user_id", userID, "field", field.name, "error", err)
			continue
		}
		if !s.adopt(gen, release) {
			release()
		}
	}

	bal, err := s.reader.GetBalance(s.ctx, userID)
	if err == nil && bal == nil {
		err = errEmptyBalance
	}
	if err != nil {
		metrics.BalanceFetchFailures.Inc()
		logger.Log.Errorw("failed to fetch balance", "user_id", userID, "error", err)
		return
	}
	s.applyFetch(gen, *bal)
}

// adopt keeps release if gen is still the active transition.
func (s *BalanceSyncService) adopt(gen uint64, release func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return false
	}
	var once sync.Once
	s.release = append(s.release, func() {
		once.Do(func() {
			release()
			metrics.BalanceSubscriptions.Dec()
		})
	})
	metrics.BalanceSubscriptions.Inc()
	return true
}

func (s *BalanceSyncService) applyFetch(gen uint64, bal models.Balance) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		metrics.StaleBalanceDrops.Inc()
		return false
	}
	s.balance = bal
	metrics.BalanceUpdates.WithLabelValues("fetch", models.FieldBalance).Inc()
	metrics.BalanceUpdates.WithLabelValues("fetch", models.FieldAvailableBalance).Inc()
	return true
}

func (s *BalanceSyncService) applyLive(gen uint64, field string, reduce func(*models.Balance, float64), change models.RowChange) {
	if change.Type != "" && change.Type != models.EventUpdate {
		return
	}
	v, ok := change.Float(field)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		metrics.StaleBalanceDrops.Inc()
		return
	}
	reduce(&s.balance, v)
	metrics.BalanceUpdates.WithLabelValues("live", field).Inc()
}

// Snapshot returns the cached balance. Both fields are read together but may
// come from different server events.
func (s *BalanceSyncService) Snapshot() models.Balance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// UserID returns the user the cached balance belongs to.
func (s *BalanceSyncService) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// Subscriptions returns the number of live subscriptions held.
func (s *BalanceSyncService) Subscriptions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.release)
}

// ReadConsistent fetches both fields from a single server row. Use it instead
// of Snapshot before acting on the balance.
func (s *BalanceSyncService) ReadConsistent(ctx context.Context) (models.Balance, error) {
	s.mu.Lock()
	userID, gen := s.userID, s.gen
	s.mu.Unlock()

	if userID == "" {
		return models.Balance{}, ErrNotLoggedIn
	}

	bal, err := s.reader.GetBalance(ctx, userID)
	if err == nil && bal == nil {
		err = errEmptyBalance
	}
	if err != nil {
		logger.Log.Errorw("failed to read balance", "user_id", userID, "error", err)
		return models.Balance{}, err
	}
	if !s.applyFetch(gen, *bal) {
		return models.Balance{}, ErrSessionChanged
	}
	return *bal, nil
}

// Close releases all subscriptions and stops applying updates. It waits for
// in-flight fetches to return.
func (s *BalanceSyncService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	release := s.release
	s.release = nil
	s.mu.Unlock()

	releaseAll(release)
	s.cancel()
	s.wg.Wait()
}

func releaseAll(release []func()) {
	for _, fn := range release {
		fn()
	}
}

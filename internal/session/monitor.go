// Package session derives the client's login state from persisted
// credentials and publishes it to the rest of the application.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// DefaultInterval is the credential polling interval.
const DefaultInterval = 500 * time.Millisecond

//go:generate mockgen -source=monitor.go -destination=mock_monitor_test.go -package=session

// CredentialReader reads persisted credentials.
type CredentialReader interface {
	Lookup(ctx context.Context, key string) (string, bool)
}

// ChangeNotifier reports credential changes made by other processes.
type ChangeNotifier interface {
	Watch(ctx context.Context, onChange func(key string)) error
}

// Monitor owns the session identity. It recomputes the session on every tick
// and on every credential change notification, and publishes it only when it
// differs from the last published value.
type Monitor struct {
	reader   CredentialReader
	notifier ChangeNotifier
	interval time.Duration

	mu      sync.Mutex
	current models.Session
	subs    map[int]func(models.Session)
	nextID  int

	// publishMu serializes recomputation and delivery.
	publishMu sync.Mutex
}

// NewMonitor creates a monitor. A nil notifier disables change
// notifications; a non-positive interval uses DefaultInterval.
func NewMonitor(reader CredentialReader, notifier ChangeNotifier, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{
		reader:   reader,
		notifier: notifier,
		interval: interval,
		current:  models.LoggedOut(),
		subs:     make(map[int]func(models.Session)),
	}
}

// Current returns the last published session.
func (m *Monitor) Current() models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe registers fn, immediately delivers the current session to it and
// then every change. The returned func unsubscribes and may be called more
// than once.
func (m *Monitor) Subscribe(fn func(models.Session)) func() {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	current := m.current
	m.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// Recompute derives the session from the credential store and publishes it
// if it changed. It reports whether a change was published.
func (m *Monitor) Recompute(ctx context.Context) bool {
	m.publishMu.Lock()
	defer m.publishMu.Unlock()

	next := m.derive(ctx)

	m.mu.Lock()
	if next == m.current {
		m.mu.Unlock()
		return false
	}
	prev := m.current
	m.current = next
	subs := make([]func(models.Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	logger.Log.Infow("session changed",
		"logged_in", next.LoggedIn,
		"user_id", next.UserID,
		"previous_user_id", prev.UserID,
	)

	for _, fn := range subs {
		fn(next)
	}
	return true
}

// Run recomputes immediately, then on every tick and change notification,
// until ctx is done.
func (m *Monitor) Run(ctx context.Context) error {
	m.Recompute(ctx)

	changed := make(chan struct{}, 1)
	if m.notifier != nil {
		go func() {
			err := m.notifier.Watch(ctx, func(key string) {
				if key != models.KeyPhoneNumber && key != models.KeyUserID {
					return
				}
				select {
				case changed <- struct{}{}:
				default:
				}
			})
			if err != nil {
				logger.Log.Errorw("credential watch stopped, falling back to polling", "error", err)
			}
		}()
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Recompute(ctx)
		case <-changed:
			m.Recompute(ctx)
		}
	}
}

func (m *Monitor) derive(ctx context.Context) models.Session {
	if _, ok := m.lookup(ctx, models.KeyPhoneNumber); !ok {
		return models.LoggedOut()
	}

	userID, ok := m.lookup(ctx, models.KeyUserID)
	if !ok {
		return models.LoggedOut()
	}
	return models.NewSession(userID)
}

// lookup reads key and treats malformed values as absent.
func (m *Monitor) lookup(ctx context.Context, key string) (string, bool) {
	v, ok := m.reader.Lookup(ctx, key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if !wellFormed(v) {
		return "", false
	}
	return v, true
}

func wellFormed(v string) bool {
	if v == "" || !utf8.ValidString(v) {
		return false
	}
	for _, r := range v {
		if unicode.IsControl(r) {
			return false
		}
	}
	// Placeholders some writers leave behind for a cleared key.
	switch v {
	case "null", "undefined":
		return false
	}
	return true
}

package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// DefaultNotifyChannel is the channel the notify_row_change trigger publishes on.
const DefaultNotifyChannel = "row_changes"

type rowKey struct {
	table  string
	column string
	value  string
}

// RowChangeListener delivers row UPDATE notifications published with
// pg_notify. All subscriptions share one LISTEN connection; handlers of the
// same row are fanned out from a single notification.
type RowChangeListener struct {
	dsn     string
	channel string
	retry   time.Duration

	mu     sync.Mutex
	rows   map[rowKey]map[int]func(models.RowChange)
	nextID int
}

// NewRowChangeListener creates a listener for channel on the database at dsn.
func NewRowChangeListener(dsn, channel string) *RowChangeListener {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	return &RowChangeListener{
		dsn:     dsn,
		channel: channel,
		retry:   time.Second,
		rows:    make(map[rowKey]map[int]func(models.RowChange)),
	}
}

// SubscribeRow registers handler for UPDATE events of rows in table where
// column equals value. Subscriptions made before Run connects are delivered
// once it does.
func (l *RowChangeListener) SubscribeRow(ctx context.Context, table, column, value string, handler func(models.RowChange)) (func(), error) {
	key := rowKey{table: table, column: column, value: value}

	l.mu.Lock()
	id := l.nextID
	l.nextID++
	handlers, ok := l.rows[key]
	if !ok {
		handlers = make(map[int]func(models.RowChange))
		l.rows[key] = handlers
	}
	handlers[id] = handler
	l.mu.Unlock()

	logger.Log.Debugw("row subscription added", "table", table, "column", column, "value", value, "id", id)

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.rows[key], id)
			if len(l.rows[key]) == 0 {
				delete(l.rows, key)
			}
		})
	}, nil
}

// Subscriptions returns the number of registered handlers.
func (l *RowChangeListener) Subscriptions() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, handlers := range l.rows {
		n += len(handlers)
	}
	return n
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *RowChangeListener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logger.Log.Errorw("row change listener disconnected", "channel", l.channel, "retry_in", l.retry, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.retry):
		}
	}
}

func (l *RowChangeListener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	logger.Log.Infow("listening for row changes", "channel", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.dispatch(n.Payload)
	}
}

func (l *RowChangeListener) dispatch(payload string) {
	var change models.RowChange
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&change); err != nil {
		logger.Log.Warnw("malformed row change notification", "payload", payload, "error", err)
		return
	}
	if change.Type != models.EventUpdate {
		return
	}

	for _, h := range l.match(change) {
		h(change)
	}
}

func (l *RowChangeListener) match(change models.RowChange) []func(models.RowChange) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []func(models.RowChange)
	for key, handlers := range l.rows {
		if key.table != change.Table {
			continue
		}
		v, ok := change.Record[key.column]
		if !ok || v == nil || fmt.Sprint(v) != key.value {
			continue
		}
		for _, h := range handlers {
			out = append(out, h)
		}
	}
	return out
}

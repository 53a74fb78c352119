package facades

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sbilibin2017/gw-recharge-client/internal/logger"
	"github.com/sbilibin2017/gw-recharge-client/internal/models"
)

// RealtimeURL converts a project URL into its realtime websocket endpoint.
func RealtimeURL(projectURL, apiKey string) string {
	wsURL := strings.TrimSuffix(projectURL, "/")
	switch {
	case strings.HasPrefix(wsURL, "https"):
		wsURL = "wss" + wsURL[len("https"):]
	case strings.HasPrefix(wsURL, "http"):
		wsURL = "ws" + wsURL[len("http"):]
	}
	query := url.Values{"apikey": {apiKey}, "vsn": {"1.0.0"}}
	return wsURL + "/realtime/v1/websocket?" + query.Encode()
}

type realtimeMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type realtimeTopic struct {
	table    string
	filter   string
	joinRef  string // Empty when not joined on the current connection
	handlers map[int]func(models.RowChange)
}

// RealtimeFacade receives row changes over the realtime websocket. Handlers
// subscribed to the same row share one channel join; the channel is left when
// its last handler is released.
type RealtimeFacade struct {
	url       string
	apiKey    string
	schema    string
	dialer    *websocket.Dialer
	heartbeat time.Duration
	retry     time.Duration

	mu     sync.Mutex
	conn   *websocket.Conn
	ref    int
	nextID int
	topics map[string]*realtimeTopic
}

// NewRealtimeFacade creates a facade for the websocket endpoint wsURL (see
// RealtimeURL). It does not connect until Run is called.
func NewRealtimeFacade(wsURL, apiKey string) *RealtimeFacade {
	return &RealtimeFacade{
		url:       wsURL,
		apiKey:    apiKey,
		schema:    "public",
		dialer:    &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		heartbeat: 30 * time.Second,
		retry:     time.Second,
		topics:    make(map[string]*realtimeTopic),
	}
}

// SubscribeRow registers handler for UPDATE events of rows in table where
// column equals value.
func (f *RealtimeFacade) SubscribeRow(ctx context.Context, table, column, value string, handler func(models.RowChange)) (func(), error) {
	filter := fmt.Sprintf("%s=eq.%s", column, value)
	name := fmt.Sprintf("realtime:%s:%s:%s", f.schema, table, filter)

	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[name]
	if !ok {
		t = &realtimeTopic{table: table, filter: filter, handlers: make(map[int]func(models.RowChange))}
		f.topics[name] = t
	}
	id := f.nextID
	f.nextID++
	t.handlers[id] = handler

	if t.joinRef == "" && f.conn != nil {
		if err := f.join(name, t); err != nil {
			delete(t.handlers, id)
			if len(t.handlers) == 0 {
				delete(f.topics, name)
			}
			return nil, err
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { f.release(name, id) })
	}, nil
}

func (f *RealtimeFacade) release(name string, id int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.topics[name]
	if !ok {
		return
	}
	delete(t.handlers, id)
	if len(t.handlers) > 0 {
		return
	}
	delete(f.topics, name)

	if t.joinRef != "" && f.conn != nil {
		msg := realtimeOut{Topic: name, Event: "phx_leave", Payload: map[string]any{}, Ref: f.nextRef(), JoinRef: t.joinRef}
		if err := f.write(msg); err != nil {
			logger.Log.Warnw("failed to leave realtime channel", "topic", name, "error", err)
		}
	}
}

// Topics returns the number of joined or pending channels.
func (f *RealtimeFacade) Topics() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

// Run keeps the websocket connected until ctx is done, rejoining every
// channel after a reconnect.
func (f *RealtimeFacade) Run(ctx context.Context) error {
	for {
		err := f.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logger.Log.Errorw("realtime connection lost", "retry_in", f.retry, "error", err)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(f.retry):
		}
	}
}

func (f *RealtimeFacade) session(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	f.mu.Lock()
	f.conn = conn
	for name, t := range f.topics {
		if err := f.join(name, t); err != nil {
			logger.Log.Warnw("failed to join realtime channel", "topic", name, "error", err)
		}
	}
	f.mu.Unlock()
	logger.Log.Infow("realtime connected", "topics", f.Topics())

	done := make(chan struct{})
	defer close(done)
	go f.keepAlive(ctx, conn, done)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			f.mu.Lock()
			f.conn = nil
			for _, t := range f.topics {
				t.joinRef = ""
			}
			f.mu.Unlock()
			conn.Close()
			return err
		}
		f.dispatch(data)
	}
}

// keepAlive sends heartbeats and closes conn when ctx is done.
func (f *RealtimeFacade) keepAlive(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(f.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			f.mu.Lock()
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			f.mu.Unlock()
			conn.Close()
			return
		case <-ticker.C:
			f.mu.Lock()
			if f.conn == conn {
				msg := realtimeOut{Topic: "phoenix", Event: "heartbeat", Payload: map[string]any{}, Ref: f.nextRef()}
				if err := f.write(msg); err != nil {
					logger.Log.Warnw("realtime heartbeat failed", "error", err)
				}
			}
			f.mu.Unlock()
		}
	}
}

type realtimeOut struct {
	Topic   string `json:"topic"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
	Ref     string `json:"ref"`
	JoinRef string `json:"join_ref,omitempty"`
}

// join sends phx_join for t. Must be called with f.mu held and f.conn set.
func (f *RealtimeFacade) join(name string, t *realtimeTopic) error {
	ref := f.nextRef()
	msg := realtimeOut{
		Topic: name,
		Event: "phx_join",
		Payload: map[string]any{
			"config": map[string]any{
				"postgres_changes": []map[string]any{{
					"event":  models.EventUpdate,
					"schema": f.schema,
					"table":  t.table,
					"filter": t.filter,
				}},
			},
			"access_token": f.apiKey,
		},
		Ref:     ref,
		JoinRef: ref,
	}
	if err := f.write(msg); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	t.joinRef = ref
	return nil
}

// write sends msg. Must be called with f.mu held.
func (f *RealtimeFacade) write(msg realtimeOut) error {
	f.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return f.conn.WriteJSON(msg)
}

func (f *RealtimeFacade) nextRef() string {
	f.ref++
	return strconv.Itoa(f.ref)
}

// changePayload is the row change body. Newer servers nest it under "data".
type changePayload struct {
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	Record map[string]any `json:"record"`
	Data   *changePayload `json:"data"`
	Status string         `json:"status"`
}

func (f *RealtimeFacade) dispatch(data []byte) {
	var msg realtimeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Log.Warnw("malformed realtime message", "error", err)
		return
	}

	var payload changePayload
	dec := json.NewDecoder(bytes.NewReader(msg.Payload))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		logger.Log.Warnw("malformed realtime payload", "topic", msg.Topic, "event", msg.Event, "error", err)
		return
	}

	switch msg.Event {
	case "phx_reply":
		if payload.Status != "" && payload.Status != "ok" {
			logger.Log.Warnw("realtime request rejected", "topic", msg.Topic, "status", payload.Status)
		}
		return
	case "phx_error", "phx_close":
		logger.Log.Warnw("realtime channel closed by server", "topic", msg.Topic, "event", msg.Event)
		return
	case "postgres_changes":
		if payload.Data == nil {
			return
		}
		payload = *payload.Data
	case models.EventInsert, models.EventUpdate, models.EventDelete:
	default:
		return
	}

	if payload.Type != models.EventUpdate {
		return
	}
	change := models.RowChange{Table: payload.Table, Type: payload.Type, Record: payload.Record}

	f.mu.Lock()
	t, ok := f.topics[msg.Topic]
	var handlers []func(models.RowChange)
	if ok {
		for _, h := range t.handlers {
			handlers = append(handlers, h)
		}
	}
	f.mu.Unlock()

	for _, h := range handlers {
		h(change)
	}
}

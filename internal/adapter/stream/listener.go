// Package stream maintains the persistent WebSocket subscription to ledger
// proposal events and owns all reconnect state.
package stream

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/shadegov/sentinel/internal/adapter/otel"
	"github.com/shadegov/sentinel/internal/domain/proposal"
)

// Conn abstracts one open stream connection. Production code wraps
// *websocket.Conn; tests substitute fakes.
type Conn interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// DialFunc opens one stream connection.
type DialFunc func(ctx context.Context) (Conn, error)

// Dial returns a DialFunc that connects to the given WebSocket URL.
func Dial(url string) DialFunc {
	return func(ctx context.Context) (Conn, error) {
		ws, _, err := websocket.Dial(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		return &wsConn{ws: ws}, nil
	}
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.ws.Read(ctx)
	return data, err
}

func (c *wsConn) Write(ctx context.Context, data []byte) error {
	return c.ws.Write(ctx, websocket.MessageText, data)
}

func (c *wsConn) Close() error {
	return c.ws.Close(websocket.StatusNormalClosure, "")
}

// Status is the listener's reconnect state, exposed read-only for status
// reporting.
type Status struct {
	Connected   bool `json:"connected"`
	Connecting  bool `json:"connecting"`
	Attempts    int  `json:"attempts"`
	MaxAttempts int  `json:"max_attempts"`
}

// State renders the machine state as a single label.
func (s Status) State() string {
	switch {
	case s.Connected:
		return "connected"
	case s.Connecting:
		return "connecting"
	default:
		return "disconnected"
	}
}

// Config holds the subscription target and reconnect tuning.
type Config struct {
	Contract    string // target contract; events for other accounts are dropped
	BackoffBase time.Duration
	BackoffCap  time.Duration
	MaxAttempts int
	Metrics     *otel.Metrics // optional
	OnStatus    func(Status)  // optional; called after connect and disconnect transitions
}

// Listener owns the subscription lifecycle:
// Disconnected -> Connecting -> Connected -> (Disconnected on close/error).
// Reconnects are scheduled with exponential backoff until MaxAttempts
// consecutive failures, after which the listener stays Disconnected until
// the process restarts.
type Listener struct {
	cfg  Config
	dial DialFunc

	events chan proposal.Event

	mu         sync.Mutex
	connected  bool
	connecting bool
	attempts   int
	stopped    bool
	timer      *time.Timer
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewListener creates a listener. Events are delivered on Events() after
// Start.
func NewListener(cfg Config, dial DialFunc) *Listener {
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap <= 0 {
		cfg.BackoffCap = 30 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	return &Listener{
		cfg:    cfg,
		dial:   dial,
		events: make(chan proposal.Event, 128),
	}
}

// Events returns the channel of parsed, filtered proposal events. The
// channel is closed by Stop.
func (l *Listener) Events() <-chan proposal.Event {
	return l.events
}

// Status reports the current reconnect state.
func (l *Listener) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		Connected:   l.connected,
		Connecting:  l.connecting,
		Attempts:    l.attempts,
		MaxAttempts: l.cfg.MaxAttempts,
	}
}

// Start opens the subscription. It is a no-op when already connecting or
// connected, and after Stop.
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.stopped || l.connecting || l.connected {
		l.mu.Unlock()
		return
	}
	l.connecting = true
	sessionCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.wg.Add(1)
	l.mu.Unlock()

	go l.run(ctx, sessionCtx)
}

// Stop closes the connection, suppresses any pending scheduled reconnect,
// and closes the events channel once the read loop has exited.
func (l *Listener) Stop() {
	l.mu.Lock()
	l.stopped = true
	if l.timer != nil {
		l.timer.Stop()
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.mu.Unlock()

	l.wg.Wait()
	close(l.events)
}

func (l *Listener) run(parent, ctx context.Context) {
	defer l.wg.Done()

	conn, err := l.dial(ctx)
	if err != nil {
		slog.Warn("stream dial failed", "error", err)
		l.disconnected(parent)
		return
	}

	if err := conn.Write(ctx, subscribeFrame(l.cfg.Contract)); err != nil {
		slog.Warn("stream subscribe failed", "error", err)
		_ = conn.Close()
		l.disconnected(parent)
		return
	}

	l.mu.Lock()
	l.connecting = false
	l.connected = true
	l.attempts = 0
	l.mu.Unlock()
	slog.Info("stream connected", "contract", l.cfg.Contract)
	l.notifyStatus()

	for {
		data, err := conn.Read(ctx)
		if err != nil {
			// Transport errors tear down the connection; recovery is the
			// close handler's reconnect, never in-place retry.
			_ = conn.Close()
			l.disconnected(parent)
			return
		}

		for _, ev := range ParseFrame(data, l.cfg.Contract) {
			select {
			case l.events <- ev:
			case <-ctx.Done():
				_ = conn.Close()
				l.disconnected(parent)
				return
			}
		}
	}
}

// disconnected transitions to Disconnected and schedules a reconnect with
// exponential backoff, unless Stop was called or attempts are exhausted.
func (l *Listener) disconnected(parent context.Context) {
	l.mu.Lock()

	l.connected = false
	l.connecting = false

	if l.stopped || parent.Err() != nil {
		l.mu.Unlock()
		return
	}
	if l.attempts >= l.cfg.MaxAttempts {
		slog.Error("stream reconnect attempts exhausted", "attempts", l.attempts)
		l.mu.Unlock()
		l.notifyStatus()
		return
	}

	delay := backoff(l.cfg.BackoffBase, l.cfg.BackoffCap, l.attempts)
	l.attempts++
	if l.cfg.Metrics != nil {
		l.cfg.Metrics.StreamReconnects.Add(context.Background(), 1)
	}
	slog.Info("stream reconnect scheduled", "attempt", l.attempts, "delay", delay)

	l.timer = time.AfterFunc(delay, func() { l.Start(parent) })
	l.mu.Unlock()
	l.notifyStatus()
}

// notifyStatus invokes the OnStatus callback outside the state lock.
func (l *Listener) notifyStatus() {
	if l.cfg.OnStatus == nil {
		return
	}
	l.cfg.OnStatus(l.Status())
}

// backoff returns min(base * 2^attempt, cap).
func backoff(base, cap time.Duration, attempt int) time.Duration {
	d := base
	for range attempt {
		d *= 2
		if d >= cap || d <= 0 {
			return cap
		}
	}
	if d > cap {
		return cap
	}
	return d
}

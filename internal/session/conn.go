package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/prerak-b/vivavoce/internal/observability"
	"github.com/prerak-b/vivavoce/internal/protocol"
)

const writeTimeout = 10 * time.Second

// controlConn owns the websocket to the interview service. One goroutine
// reads; sends are serialized behind a mutex. Malformed or unknown frames are
// logged and skipped without dropping the connection.
type controlConn struct {
	ws      *websocket.Conn
	log     *zap.Logger
	metrics *observability.Metrics

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
	events    chan any
}

func dialControl(ctx context.Context, wsURL string, log *zap.Logger, metrics *observability.Metrics) (*controlConn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial control connection: %w (HTTP %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial control connection: %w", err)
	}

	c := &controlConn{
		ws:      ws,
		log:     log,
		metrics: metrics,
		done:    make(chan struct{}),
		events:  make(chan any, 16),
	}
	go c.readLoop()
	return c, nil
}

func (c *controlConn) readLoop() {
	defer close(c.events)
	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				c.log.Warn("control connection read failed", zap.Error(err))
			}
			return
		}

		msg, err := protocol.ParseServerEvent(raw)
		if err != nil {
			if errors.Is(err, protocol.ErrUnsupportedEvent) {
				c.log.Debug("ignoring unsupported control event")
			} else {
				c.log.Warn("ignoring malformed control event", zap.Error(err))
			}
			continue
		}

		switch m := msg.(type) {
		case protocol.PromptEvent:
			c.metrics.ControlEvents.WithLabelValues("recv", string(m.Event)).Inc()
		case protocol.EndEvent:
			c.metrics.ControlEvents.WithLabelValues("recv", string(protocol.EventEnd)).Inc()
		}

		select {
		case c.events <- msg:
		case <-c.done:
			return
		}
	}
}

// Events yields parsed service events. The channel closes when the read loop
// ends, for any reason.
func (c *controlConn) Events() <-chan any { return c.events }

func (c *controlConn) send(v any, event protocol.EventType) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteJSON(v); err != nil {
		return fmt.Errorf("send %s event: %w", event, err)
	}
	c.metrics.ControlEvents.WithLabelValues("send", string(event)).Inc()
	return nil
}

// close shuts the connection down once. Later calls are no-ops.
func (c *controlConn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.SetWriteDeadline(time.Now().Add(time.Second))
		_ = c.ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		_ = c.ws.Close()
	})
}

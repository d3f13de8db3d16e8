package fusion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Order lifecycle events delivered over the WebSocket feed
const (
	EventOrderCreated         = "order_created"
	EventOrderBalanceChange   = "order_balance_change"
	EventOrderFilled          = "order_filled"
	EventOrderFilledPartially = "order_filled_partially"
	EventOrderCancelled       = "order_cancelled"
	EventOrderInvalid         = "order_invalid"
)

// OrderEvent is one message from the event feed
type OrderEvent struct {
	Event  string `json:"event"`
	Result struct {
		OrderHash string `json:"orderHash"`
		TxHash    string `json:"txHash,omitempty"`
	} `json:"result"`
}

// EventHandler receives order lifecycle events
type EventHandler func(OrderEvent)

// EventStream is a live subscription to the order event feed. Handlers
// run on the single reader goroutine, so they must not block.
type EventStream struct {
	conn *websocket.Conn

	mu       sync.Mutex
	handlers map[string][]EventHandler
	anyAll   []EventHandler
	closed   bool

	done chan struct{}
	err  error
}

// Subscribe opens the event feed for a chain. The stream delivers events
// until Close is called or the connection drops.
func (c *Client) Subscribe(ctx context.Context, chainID uint64) (*EventStream, error) {
	if c.wsURL == "" {
		return nil, fmt.Errorf("websocket URL not configured")
	}

	endpoint := fmt.Sprintf("%s/%d", strings.TrimSuffix(c.wsURL, "/"), chainID)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial failed (status %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	s := &EventStream{
		conn:     conn,
		handlers: make(map[string][]EventHandler),
		done:     make(chan struct{}),
	}

	go s.readLoop(c)

	return s, nil
}

// On registers a handler for a named event
func (s *EventStream) On(event string, handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[event] = append(s.handlers[event], handler)
}

// OnAny registers a handler for every event
func (s *EventStream) OnAny(handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.anyAll = append(s.anyAll, handler)
}

// Err returns the reason the stream stopped, if it has
func (s *EventStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed when the stream stops delivering events
func (s *EventStream) Done() <-chan struct{} {
	return s.done
}

// Close terminates the subscription
func (s *EventStream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	_ = s.conn.Close()
}

func (s *EventStream) readLoop(c *Client) {
	defer close(s.done)

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			if !s.closed {
				s.err = fmt.Errorf("event stream closed: %w", err)
			}
			s.mu.Unlock()
			return
		}

		var event OrderEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed event")
			continue
		}

		c.log.Debug().Str("event", event.Event).Str("orderHash", event.Result.OrderHash).Msg("order event")

		s.mu.Lock()
		handlers := append([]EventHandler{}, s.handlers[event.Event]...)
		handlers = append(handlers, s.anyAll...)
		s.mu.Unlock()

		for _, handler := range handlers {
			handler(event)
		}
	}
}

// WaitOrderSettled waits for a terminal event for the order, then reads
// the authoritative status over REST. The feed has no replay, so an
// event that fired before the wait started is recovered with a status
// check instead of failing the wait.
func (c *Client) WaitOrderSettled(ctx context.Context, stream *EventStream, chainID uint64, orderHash string, timeout time.Duration) (*OrderStatus, error) {
	if _, err := stream.WaitOrder(ctx, orderHash, timeout); err != nil {
		status, serr := c.OrderStatus(ctx, chainID, orderHash)
		if serr == nil && status.Status.Terminal() {
			return status, nil
		}
		return nil, err
	}
	return c.OrderStatus(ctx, chainID, orderHash)
}

// WaitOrder blocks until a terminal event arrives for the given order
// hash, the stream dies, or the timeout elapses. The timer is redundant
// with ctx but keeps a hung feed from blocking forever.
func (s *EventStream) WaitOrder(ctx context.Context, orderHash string, timeout time.Duration) (OrderEvent, error) {
	result := make(chan OrderEvent, 1)

	s.OnAny(func(event OrderEvent) {
		if !strings.EqualFold(event.Result.OrderHash, orderHash) {
			return
		}
		switch event.Event {
		case EventOrderFilled, EventOrderCancelled, EventOrderInvalid:
			select {
			case result <- event:
			default:
			}
		}
	})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-result:
		return event, nil
	case <-s.done:
		if err := s.Err(); err != nil {
			return OrderEvent{}, err
		}
		return OrderEvent{}, fmt.Errorf("event stream closed before order %s finalized", orderHash)
	case <-timer.C:
		return OrderEvent{}, fmt.Errorf("timed out after %s waiting for order %s", timeout, orderHash)
	case <-ctx.Done():
		return OrderEvent{}, ctx.Err()
	}
}

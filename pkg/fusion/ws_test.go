package fusion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// eventServer upgrades one connection and writes the given raw messages
func eventServer(t *testing.T, wantPath string, messages []string) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != wantPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			t.Error("missing bearer token on websocket dial")
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for _, message := range messages {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
				return
			}
		}

		// Hold the connection open until the client closes it
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsClient(serverURL string) *Client {
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http")
	return NewClient("http://unused", "key", WithWSURL(wsURL))
}

func TestSubscribeDispatchesEvents(t *testing.T) {
	server := eventServer(t, "/1", []string{
		`{"event":"order_created","result":{"orderHash":"0xabc"}}`,
		`not json`,
		`{"event":"order_filled","result":{"orderHash":"0xabc","txHash":"0xfill"}}`,
	})
	defer server.Close()

	stream, err := wsClient(server.URL).Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	filled := make(chan OrderEvent, 1)
	stream.On(EventOrderFilled, func(event OrderEvent) {
		filled <- event
	})

	any := make(chan OrderEvent, 4)
	stream.OnAny(func(event OrderEvent) {
		any <- event
	})

	select {
	case event := <-filled:
		if event.Result.TxHash != "0xfill" {
			t.Fatalf("unexpected event %+v", event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for fill event")
	}

	// The malformed message is skipped; both valid events reach OnAny
	first := <-any
	second := <-any
	if first.Event != EventOrderCreated || second.Event != EventOrderFilled {
		t.Fatalf("unexpected event order: %s, %s", first.Event, second.Event)
	}
}

func TestWaitOrderResolvesOnFill(t *testing.T) {
	server := eventServer(t, "/1", []string{
		`{"event":"order_created","result":{"orderHash":"0xabc"}}`,
		`{"event":"order_filled","result":{"orderHash":"0xother"}}`,
		`{"event":"order_filled","result":{"orderHash":"0xABC","txHash":"0xfill"}}`,
	})
	defer server.Close()

	stream, err := wsClient(server.URL).Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	event, err := stream.WaitOrder(context.Background(), "0xabc", 2*time.Second)
	if err != nil {
		t.Fatalf("wait order: %v", err)
	}
	if event.Event != EventOrderFilled || event.Result.TxHash != "0xfill" {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestWaitOrderTimesOut(t *testing.T) {
	server := eventServer(t, "/1", nil)
	defer server.Close()

	stream, err := wsClient(server.URL).Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	_, err = stream.WaitOrder(context.Background(), "0xabc", 50*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitOrderSettledRecoversMissedEvent(t *testing.T) {
	// The fill event is written the moment the connection opens, long
	// before any handler is registered, so the wait itself never sees it
	wsServer := eventServer(t, "/1", []string{
		`{"event":"order_filled","result":{"orderHash":"0xabc","txHash":"0xfill"}}`,
	})
	defer wsServer.Close()

	restServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderHash":"0xabc","status":"filled","fills":[{"txHash":"0xfill"}]}`))
	}))
	defer restServer.Close()

	wsURL := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	client := NewClient(restServer.URL, "key", WithWSURL(wsURL))

	stream, err := client.Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	// Let the read loop consume and drop the event
	time.Sleep(200 * time.Millisecond)

	status, err := client.WaitOrderSettled(context.Background(), stream, 1, "0xabc", 300*time.Millisecond)
	if err != nil {
		t.Fatalf("missed event not recovered: %v", err)
	}
	if status.Status != StateFilled {
		t.Fatalf("unexpected status %s", status.Status)
	}
	if status.FillTxHash() != "0xfill" {
		t.Fatalf("unexpected fill tx %q", status.FillTxHash())
	}
}

func TestWaitOrderSettledStillFailsWhenPending(t *testing.T) {
	wsServer := eventServer(t, "/1", nil)
	defer wsServer.Close()

	restServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderHash":"0xabc","status":"pending","fills":[]}`))
	}))
	defer restServer.Close()

	wsURL := "ws" + strings.TrimPrefix(wsServer.URL, "http")
	client := NewClient(restServer.URL, "key", WithWSURL(wsURL))

	stream, err := client.Subscribe(context.Background(), 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer stream.Close()

	_, err = client.WaitOrderSettled(context.Background(), stream, 1, "0xabc", 50*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSubscribeRequiresWSURL(t *testing.T) {
	client := NewClient("http://unused", "key")
	if _, err := client.Subscribe(context.Background(), 1); err == nil {
		t.Fatal("expected error without websocket URL")
	}
}

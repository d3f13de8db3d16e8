package fusion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWaitForTerminalReachesFilled(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.Write([]byte(`{"orderHash":"0xabc","status":"pending","fills":[]}`))
			return
		}
		w.Write([]byte(`{"orderHash":"0xabc","status":"filled","fills":[{"txHash":"0xfill"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")

	var progressCalls int32
	status, err := client.WaitForTerminal(context.Background(), 1, "0xabc", 10*time.Millisecond, func(*OrderStatus) {
		atomic.AddInt32(&progressCalls, 1)
	})
	if err != nil {
		t.Fatalf("wait for terminal: %v", err)
	}

	if status.Status != StateFilled {
		t.Fatalf("unexpected final state %s", status.Status)
	}
	if status.FillTxHash() != "0xfill" {
		t.Fatalf("unexpected fill tx %q", status.FillTxHash())
	}
	if got := atomic.LoadInt32(&progressCalls); got != 3 {
		t.Fatalf("expected 3 progress callbacks, got %d", got)
	}
}

func TestWaitForTerminalStopsOnCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderHash":"0xabc","status":"cancelled","fills":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	status, err := client.WaitForTerminal(context.Background(), 1, "0xabc", 10*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("wait for terminal: %v", err)
	}
	if status.Status != StateCancelled {
		t.Fatalf("unexpected state %s", status.Status)
	}
	if status.Status.Successful() {
		t.Fatal("cancelled must not count as success")
	}
}

func TestWaitForTerminalHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"orderHash":"0xabc","status":"pending","fills":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.WaitForTerminal(ctx, 1, "0xabc", 10*time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "not finalized") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForTerminalGivesUpOnPersistentErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"description":"order not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.WaitForTerminal(context.Background(), 1, "0xmissing", time.Millisecond, nil)
	if err == nil {
		t.Fatal("expected error after repeated failures")
	}
	if !strings.Contains(err.Error(), "consecutive status errors") {
		t.Fatalf("unexpected error: %v", err)
	}
}

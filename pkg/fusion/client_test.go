package fusion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

const quoteResponse = `{
	"quoteId": "q-123",
	"fromTokenAmount": "1500000000000000000",
	"toTokenAmount": "4200000000",
	"recommended_preset": "fast",
	"settlementAddress": "0xa88800cd213da5ae406ce248380802bd53b47647",
	"presets": {
		"fast": {
			"auctionDuration": 180,
			"startAuctionIn": 24,
			"initialRateBump": 84909,
			"auctionStartAmount": "4250000000",
			"auctionEndAmount": "4200000000",
			"points": [{"delay": 120, "coefficient": 63932}]
		},
		"medium": {
			"auctionDuration": 360,
			"startAuctionIn": 24,
			"initialRateBump": 84909,
			"auctionStartAmount": "4260000000",
			"auctionEndAmount": "4190000000",
			"points": []
		}
	}
}`

func TestGetQuote(t *testing.T) {
	var gotPath, gotAuth, gotWallet string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotWallet = r.URL.Query().Get("walletAddress")
		w.Write([]byte(quoteResponse))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	quote, err := client.GetQuote(context.Background(), &QuoteRequest{
		ChainID:       1,
		FromToken:     "0xweth",
		ToToken:       "0xusdc",
		Amount:        "1500000000000000000",
		WalletAddress: "0xmaker",
	})
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}

	if gotPath != "/fusion/quoter/v2.0/1/quote/receive" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotWallet != "0xmaker" {
		t.Fatalf("unexpected wallet %q", gotWallet)
	}

	if quote.QuoteID != "q-123" {
		t.Fatalf("unexpected quote id %s", quote.QuoteID)
	}
	if quote.RecommendedPreset != PresetFast {
		t.Fatalf("unexpected recommended preset %s", quote.RecommendedPreset)
	}

	preset, err := quote.Preset("")
	if err != nil {
		t.Fatalf("recommended preset: %v", err)
	}
	if preset.AuctionEndAmount != "4200000000" {
		t.Fatalf("unexpected end amount %s", preset.AuctionEndAmount)
	}
	if len(preset.Points) != 1 || preset.Points[0].Delay != 120 {
		t.Fatalf("unexpected auction points %+v", preset.Points)
	}
}

func TestGetQuoteRequiresWallet(t *testing.T) {
	client := NewClient("http://unused", "key")
	_, err := client.GetQuote(context.Background(), &QuoteRequest{ChainID: 1})
	if err == nil {
		t.Fatal("expected error for missing wallet address")
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"description":"insufficient liquidity"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	_, err := client.OrderStatus(context.Background(), 1, "0xdead")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "insufficient liquidity") {
		t.Fatalf("error lost the API description: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("client error retried %d times", got)
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"orderHash":"0xabc","status":"pending","fills":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	status, err := client.OrderStatus(context.Background(), 1, "0xabc")
	if err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if status.Status != StatePending {
		t.Fatalf("unexpected status %s", status.Status)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestSubmitOrder(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	err := client.SubmitOrder(context.Background(), 1, &SignedOrder{
		Order:     Order{Maker: "0xmaker"},
		Signature: "0xsig",
		Extension: "0x",
		QuoteID:   "q-123",
	})
	if err != nil {
		t.Fatalf("submit order: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Fatalf("unexpected method %s", gotMethod)
	}
	if gotPath != "/fusion/relayer/v2.0/1/order/submit" {
		t.Fatalf("unexpected path %s", gotPath)
	}
	if gotContentType != "application/json" {
		t.Fatalf("unexpected content type %q", gotContentType)
	}
}

func TestSubmitOrderSurfacesRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"order already exists"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	err := client.SubmitOrder(context.Background(), 1, &SignedOrder{})
	if err == nil || !strings.Contains(err.Error(), "order already exists") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOrderStatusDefaultsHash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"filled","fills":[{"txHash":"0xfill"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	status, err := client.OrderStatus(context.Background(), 1, "0xhash")
	if err != nil {
		t.Fatalf("order status: %v", err)
	}
	if status.OrderHash != "0xhash" {
		t.Fatalf("hash not defaulted: %q", status.OrderHash)
	}
	if status.FillTxHash() != "0xfill" {
		t.Fatalf("unexpected fill tx %q", status.FillTxHash())
	}
}

func TestTokensCachesPerChain(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{
			"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2": {"symbol":"WETH","name":"Wrapped Ether","decimals":18},
			"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {"symbol":"USDC","name":"USD Coin","decimals":6}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	ctx := context.Background()

	tokens, err := client.Tokens(ctx, 1)
	if err != nil {
		t.Fatalf("tokens: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}

	weth, ok := tokens["0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"]
	if !ok {
		t.Fatal("expected lowercase address keys")
	}
	if weth.Address == "" {
		t.Fatal("address not backfilled from map key")
	}

	if _, err := client.Tokens(ctx, 1); err != nil {
		t.Fatalf("cached tokens: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected 1 HTTP call, got %d", got)
	}
}

func TestResolveToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48": {"symbol":"USDC","decimals":6}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	ctx := context.Background()

	bySymbol, err := client.ResolveToken(ctx, 1, "usdc")
	if err != nil {
		t.Fatalf("resolve by symbol: %v", err)
	}
	if bySymbol.Decimals != 6 {
		t.Fatalf("unexpected token %+v", bySymbol)
	}

	byAddress, err := client.ResolveToken(ctx, 1, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")
	if err != nil {
		t.Fatalf("resolve by address: %v", err)
	}
	if byAddress.Symbol != "USDC" {
		t.Fatalf("unexpected token %+v", byAddress)
	}

	if _, err := client.ResolveToken(ctx, 1, "NOPE"); err == nil {
		t.Fatal("expected error for unknown token")
	}
}

func TestOrdersByMaker(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/order/maker/0xmaker") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"items":[{"orderHash":"0x1","remainingMakerAmount":"100"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key")
	orders, err := client.OrdersByMaker(context.Background(), 1, "0xmaker")
	if err != nil {
		t.Fatalf("orders by maker: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderHash != "0x1" {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

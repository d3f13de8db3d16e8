package fusion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	cache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const (
	defaultTimeout  = 30 * time.Second
	retryInterval   = 2 * time.Second
	maxRetries      = 3
	tokenCacheTTL   = 5 * time.Minute
	tokenCacheSweep = 10 * time.Minute
)

// Client talks to the Fusion REST API. It owns auth, retries and error
// body extraction; callers get decoded DTOs or descriptive errors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	wsURL      string
	apiKey     string
	log        zerolog.Logger
	tokens     *cache.Cache
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger attaches a logger for wire-level debug output
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithWSURL overrides the WebSocket event feed URL
func WithWSURL(wsURL string) Option {
	return func(c *Client) { c.wsURL = wsURL }
}

// NewClient creates a Fusion API client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		log:        zerolog.Nop(),
		tokens:     cache.New(tokenCacheTTL, tokenCacheSweep),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetQuote requests a quote with auction presets for the given swap
func (c *Client) GetQuote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	if req.WalletAddress == "" {
		return nil, fmt.Errorf("wallet address is required")
	}

	query := url.Values{}
	query.Set("fromTokenAddress", req.FromToken)
	query.Set("toTokenAddress", req.ToToken)
	query.Set("amount", req.Amount)
	query.Set("walletAddress", req.WalletAddress)
	if req.Receiver != "" {
		query.Set("receiver", req.Receiver)
	}

	path := fmt.Sprintf("/fusion/quoter/v2.0/%d/quote/receive", req.ChainID)

	var quote Quote
	if err := c.getJSON(ctx, path, query, &quote); err != nil {
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	if quote.QuoteID == "" {
		return nil, fmt.Errorf("empty quote response")
	}
	return &quote, nil
}

// SubmitOrder submits a signed order to the relayer. Submission is not
// retried: a duplicate submit is rejected by the API.
func (c *Client) SubmitOrder(ctx context.Context, chainID uint64, order *SignedOrder) error {
	path := fmt.Sprintf("/fusion/relayer/v2.0/%d/order/submit", chainID)

	body, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode order: %w", err)
	}

	if err := c.postJSON(ctx, path, body); err != nil {
		return fmt.Errorf("failed to submit order: %w", err)
	}
	return nil
}

// OrderStatus fetches the execution status of an order by its hash
func (c *Client) OrderStatus(ctx context.Context, chainID uint64, orderHash string) (*OrderStatus, error) {
	path := fmt.Sprintf("/fusion/orders/v2.0/%d/order/status/%s", chainID, orderHash)

	var status OrderStatus
	if err := c.getJSON(ctx, path, nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get order status: %w", err)
	}
	if status.OrderHash == "" {
		status.OrderHash = orderHash
	}
	return &status, nil
}

// OrdersByMaker lists active orders for a maker address
func (c *Client) OrdersByMaker(ctx context.Context, chainID uint64, maker string) ([]ActiveOrder, error) {
	path := fmt.Sprintf("/fusion/orders/v2.0/%d/order/maker/%s", chainID, maker)

	var resp struct {
		Items []ActiveOrder `json:"items"`
	}
	if err := c.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return resp.Items, nil
}

// Tokens returns token metadata for a chain keyed by lowercase address.
// Results are cached for a few minutes to keep watch loops cheap.
func (c *Client) Tokens(ctx context.Context, chainID uint64) (map[string]Token, error) {
	cacheKey := fmt.Sprintf("tokens:%d", chainID)
	if cached, ok := c.tokens.Get(cacheKey); ok {
		return cached.(map[string]Token), nil
	}

	path := fmt.Sprintf("/token/v1.2/%d", chainID)

	tokens := make(map[string]Token)
	if err := c.getJSON(ctx, path, nil, &tokens); err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}

	normalized := make(map[string]Token, len(tokens))
	for addr, token := range tokens {
		if token.Address == "" {
			token.Address = addr
		}
		normalized[strings.ToLower(token.Address)] = token
	}

	c.tokens.Set(cacheKey, normalized, cache.DefaultExpiration)
	return normalized, nil
}

// ResolveToken finds a token by symbol or address on the given chain
func (c *Client) ResolveToken(ctx context.Context, chainID uint64, symbolOrAddress string) (*Token, error) {
	tokens, err := c.Tokens(ctx, chainID)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(symbolOrAddress)
	if token, ok := tokens[key]; ok {
		return &token, nil
	}

	for _, token := range tokens {
		if strings.EqualFold(token.Symbol, symbolOrAddress) {
			return &token, nil
		}
	}

	return nil, fmt.Errorf("token %q not found on chain %d", symbolOrAddress, chainID)
}

// getJSON performs an authenticated GET with bounded retries on transient
// failures and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	operation := func() ([]byte, error) {
		body, status, err := c.do(ctx, http.MethodGet, path, query, nil)
		if err != nil {
			return nil, err
		}
		if status >= 400 {
			err := apiError(status, body)
			if status >= 500 || status == http.StatusTooManyRequests {
				return nil, err // transient, retry
			}
			return nil, backoff.Permanent(err)
		}
		return body, nil
	}

	b := backoff.NewConstantBackOff(retryInterval)
	body, err := backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(maxRetries))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// postJSON performs a single authenticated POST and checks for success
func (c *Client) postJSON(ctx context.Context, path string, payload []byte) error {
	body, status, err := c.do(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return apiError(status, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, int, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.log.Debug().Str("method", method).Str("path", path).Msg("fusion api call")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.log.Debug().Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fusion api response")

	return body, resp.StatusCode, nil
}

// apiError extracts the API's own error description from a response body
// so the user sees the real reason, not just a status code.
func apiError(status int, body []byte) error {
	if len(body) == 0 {
		return fmt.Errorf("API returned status code %d", status)
	}

	if message := gjson.GetBytes(body, "description").String(); message != "" {
		return fmt.Errorf("API error (status %d): %s", status, message)
	}
	if message := gjson.GetBytes(body, "message").String(); message != "" {
		return fmt.Errorf("API error (status %d): %s", status, message)
	}
	if errs := gjson.GetBytes(body, "errors"); errs.Exists() {
		return fmt.Errorf("API error (status %d): %s", status, errs.Raw)
	}
	return fmt.Errorf("API error (status %d): %s", status, string(body))
}

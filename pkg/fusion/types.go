package fusion

import (
	"fmt"
	"strings"
)

// NativeToken is the pseudo-address EVM aggregator APIs use for the
// chain's native asset.
const NativeToken = "0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"

// PresetName selects one of the auction price schedules in a quote
type PresetName string

const (
	PresetFast   PresetName = "fast"
	PresetMedium PresetName = "medium"
	PresetSlow   PresetName = "slow"
)

// ParsePreset validates a user-supplied preset name
func ParsePreset(s string) (PresetName, error) {
	switch PresetName(strings.ToLower(s)) {
	case PresetFast:
		return PresetFast, nil
	case PresetMedium:
		return PresetMedium, nil
	case PresetSlow:
		return PresetSlow, nil
	default:
		return "", fmt.Errorf("unknown preset %q: must be fast, medium or slow", s)
	}
}

// AuctionPoint is one segment of the Dutch auction curve. The curve is
// supplied by the quote API and never computed locally.
type AuctionPoint struct {
	Delay       int   `json:"delay"`
	Coefficient int64 `json:"coefficient"`
}

// Preset is a price schedule that decreases over the auction duration
type Preset struct {
	AuctionDuration    int64          `json:"auctionDuration"`
	StartAuctionIn     int64          `json:"startAuctionIn"`
	InitialRateBump    int64          `json:"initialRateBump"`
	AuctionStartAmount string         `json:"auctionStartAmount"`
	AuctionEndAmount   string         `json:"auctionEndAmount"`
	Points             []AuctionPoint `json:"points"`
	AllowPartialFills  bool           `json:"allowPartialFills"`
	AllowMultipleFills bool           `json:"allowMultipleFills"`
	GasCostEstimate    string         `json:"gasCost,omitempty"`
}

// QuoteRequest describes the swap a quote is requested for
type QuoteRequest struct {
	ChainID       uint64
	FromToken     string
	ToToken       string
	Amount        string // base units
	WalletAddress string
	Receiver      string // optional, defaults to wallet
}

// Quote is the quoter API response. Presets are keyed by name; the API
// also tells us which one it recommends.
type Quote struct {
	QuoteID           string                `json:"quoteId"`
	FromTokenAmount   string                `json:"fromTokenAmount"`
	ToTokenAmount     string                `json:"toTokenAmount"`
	RecommendedPreset PresetName            `json:"recommended_preset"`
	Presets           map[PresetName]Preset `json:"presets"`
	SettlementAddress string                `json:"settlementAddress"`
	Whitelist         []string              `json:"whitelist,omitempty"`
}

// Preset returns the named preset, or the recommended one when name is
// empty. A preset missing from the quote is an explicit error.
func (q *Quote) Preset(name PresetName) (*Preset, error) {
	if name == "" {
		name = q.RecommendedPreset
	}
	p, ok := q.Presets[name]
	if !ok {
		return nil, fmt.Errorf("quote has no %q preset", name)
	}
	return &p, nil
}

// Order is an unsigned Fusion order in the settlement contract's wire
// shape. All numeric fields are decimal strings.
type Order struct {
	Salt         string `json:"salt"`
	Maker        string `json:"maker"`
	Receiver     string `json:"receiver"`
	MakerAsset   string `json:"makerAsset"`
	TakerAsset   string `json:"takerAsset"`
	MakingAmount string `json:"makingAmount"`
	TakingAmount string `json:"takingAmount"`
	MakerTraits  string `json:"makerTraits"`
}

// SignedOrder is the payload submitted to the relayer
type SignedOrder struct {
	Order     Order  `json:"order"`
	Signature string `json:"signature"`
	Extension string `json:"extension"`
	QuoteID   string `json:"quoteId"`
}

// OrderState is the order lifecycle state reported by the API
type OrderState string

const (
	StatePending          OrderState = "pending"
	StatePartiallyFilled  OrderState = "partially-filled"
	StateFilled           OrderState = "filled"
	StateCancelled        OrderState = "cancelled"
	StateExpired          OrderState = "expired"
	StateRefunded         OrderState = "refunded"
	StateFalsePredicate   OrderState = "false-predicate"
	StateNotEnoughBalance OrderState = "not-enough-balance-or-allowance"
	StateWrongPermit      OrderState = "wrong-permit"
	StateInvalidPermit    OrderState = "invalid-permit"
	StateInvalidSignature OrderState = "invalid-signature"
)

// Terminal reports whether the order can no longer change state
func (s OrderState) Terminal() bool {
	switch s {
	case StatePending, StatePartiallyFilled, "":
		return false
	default:
		return true
	}
}

// Successful reports whether a terminal state means the maker got filled
func (s OrderState) Successful() bool {
	return s == StateFilled
}

// Fill is a single resolver fill of an order
type Fill struct {
	TxHash             string `json:"txHash"`
	FilledMakerAmount  string `json:"filledMakerAmount"`
	FilledAuctionTaker string `json:"filledAuctionTakerAmount"`
}

// OrderStatus is the status API response for one order
type OrderStatus struct {
	OrderHash         string     `json:"orderHash"`
	Status            OrderState `json:"status"`
	Order             *Order     `json:"order,omitempty"`
	Fills             []Fill     `json:"fills"`
	CreatedAt         string     `json:"createdAt"`
	AuctionStartDate  int64      `json:"auctionStartDate"`
	AuctionDuration   int64      `json:"auctionDuration"`
	ApproximateTaking string     `json:"approximateTakingAmount,omitempty"`
}

// FillTxHash returns the transaction hash of the first fill, if any
func (st *OrderStatus) FillTxHash() string {
	if len(st.Fills) == 0 {
		return ""
	}
	return st.Fills[0].TxHash
}

// ActiveOrder is one entry of the by-maker order listing
type ActiveOrder struct {
	OrderHash      string `json:"orderHash"`
	Order          Order  `json:"order"`
	Deadline       string `json:"deadline"`
	AuctionStart   string `json:"auctionStartDate"`
	AuctionEnd     string `json:"auctionEndDate"`
	RemainingMaker string `json:"remainingMakerAmount"`
}

// Token is an entry of the token metadata API
type Token struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

package types

// SwapRequest represents a user's swap command before token resolution
type SwapRequest struct {
	Amount      string // human-readable amount, e.g. "1.5"
	SourceToken string // symbol or address
	DestToken   string // symbol or address
	Preset      string // auction preset name, empty means recommended
	Receiver    string // optional receiver address, defaults to maker
}

// SwapResult holds the outcome of a completed swap for display
type SwapResult struct {
	OrderHash  string
	Status     string
	FillTxHash string
	AmountIn   string
	AmountOut  string
}

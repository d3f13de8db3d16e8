package track

import (
	"fmt"
	"time"
)

// OrderRecord is one locally-submitted order. Status mirrors whatever the
// API last reported; this store never interprets it beyond display.
type OrderRecord struct {
	OrderHash   string    `json:"order_hash"`
	ChainID     uint64    `json:"chain_id"`
	Chain       string    `json:"chain"` // "evm" or "solana"
	SourceToken string    `json:"source_token"`
	DestToken   string    `json:"dest_token"`
	AmountIn    string    `json:"amount_in"`
	AmountOut   string    `json:"amount_out,omitempty"`
	Preset      string    `json:"preset,omitempty"`
	Status      string    `json:"status"`
	FillTxHash  string    `json:"fill_tx_hash,omitempty"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"last_updated"`
}

// Validate checks the record has the fields every entry needs
func (r *OrderRecord) Validate() error {
	if r.OrderHash == "" {
		return fmt.Errorf("order hash is required")
	}
	if r.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if r.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if r.AmountIn == "" {
		return fmt.Errorf("amount is required")
	}
	return nil
}

package fusion

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OrderParams carries the caller-side inputs for building an order from a
// quote. Amounts are base-unit decimal strings.
type OrderParams struct {
	Maker     string
	Receiver  string // defaults to maker
	FromToken string
	ToToken   string
	Amount    string
	Preset    PresetName // empty means recommended
}

// saltBits keeps salts inside the settlement contract's uint96 range
const saltBits = 96

// BuildOrder assembles an unsigned order from a quote. The taking amount
// is the preset's auction end amount: the worst price the maker accepts,
// resolvers compete to fill above it.
func BuildOrder(q *Quote, params *OrderParams) (*Order, error) {
	preset, err := q.Preset(params.Preset)
	if err != nil {
		return nil, err
	}

	if params.Maker == "" {
		return nil, fmt.Errorf("maker address is required")
	}

	receiver := params.Receiver
	if receiver == "" {
		receiver = params.Maker
	}

	salt, err := randomSalt()
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &Order{
		Salt:         salt.String(),
		Maker:        params.Maker,
		Receiver:     receiver,
		MakerAsset:   params.FromToken,
		TakerAsset:   params.ToToken,
		MakingAmount: params.Amount,
		TakingAmount: preset.AuctionEndAmount,
		MakerTraits:  "0",
	}, nil
}

func randomSalt() (*big.Int, error) {
	max := new(big.Int).Lsh(big.NewInt(1), saltBits)
	return rand.Int(rand.Reader, max)
}

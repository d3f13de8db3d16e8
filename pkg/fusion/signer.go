package fusion

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Domain constants of the settlement contract the orders are verified
// against. The typed-data layout must match it byte for byte.
const (
	domainName    = "1inch Aggregation Router"
	domainVersion = "6"
)

var orderTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	"Order": {
		{Name: "salt", Type: "uint256"},
		{Name: "maker", Type: "address"},
		{Name: "receiver", Type: "address"},
		{Name: "makerAsset", Type: "address"},
		{Name: "takerAsset", Type: "address"},
		{Name: "makingAmount", Type: "uint256"},
		{Name: "takingAmount", Type: "uint256"},
		{Name: "makerTraits", Type: "uint256"},
	},
}

// Signer signs Fusion orders with EIP-712 typed data
type Signer struct {
	key        *ecdsa.PrivateKey
	address    common.Address
	chainID    uint64
	settlement common.Address
}

// NewSigner creates a signer from a hex private key
func NewSigner(privateKeyHex string, chainID uint64, settlement string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	if !common.IsHexAddress(settlement) {
		return nil, fmt.Errorf("invalid settlement address: %s", settlement)
	}

	return &Signer{
		key:        key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
		chainID:    chainID,
		settlement: common.HexToAddress(settlement),
	}, nil
}

// Address returns the maker address derived from the private key
func (s *Signer) Address() common.Address {
	return s.address
}

// OrderHash returns the EIP-712 hash the order is identified by
func (s *Signer) OrderHash(order *Order) (common.Hash, error) {
	typedData := s.typedData(order)
	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to hash order: %w", err)
	}
	return common.BytesToHash(hash), nil
}

// SignOrder signs the order and returns the signed submission payload
func (s *Signer) SignOrder(order *Order, quoteID string) (*SignedOrder, error) {
	hash, err := s.OrderHash(order)
	if err != nil {
		return nil, err
	}

	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign order: %w", err)
	}

	// Contracts expect the legacy 27/28 recovery id
	sig[crypto.RecoveryIDOffset] += 27

	return &SignedOrder{
		Order:     *order,
		Signature: hexutil.Encode(sig),
		Extension: "0x",
		QuoteID:   quoteID,
	}, nil
}

func (s *Signer) typedData(order *Order) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: "Order",
		Domain: apitypes.TypedDataDomain{
			Name:              domainName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(int64(s.chainID)),
			VerifyingContract: s.settlement.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"salt":         order.Salt,
			"maker":        order.Maker,
			"receiver":     order.Receiver,
			"makerAsset":   order.MakerAsset,
			"takerAsset":   order.TakerAsset,
			"makingAmount": order.MakingAmount,
			"takingAmount": order.TakingAmount,
			"makerTraits":  order.MakerTraits,
		},
	}
}

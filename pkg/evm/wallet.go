package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/1inch/sdks-examples/config"
)

// Wallet abstracts the chain reads and transactions the swap flow needs,
// so calling code does not depend on which RPC backend is selected.
type Wallet interface {
	// Address returns the account derived from the configured private key
	Address() common.Address
	// ChainID returns the configured chain id
	ChainID() uint64
	// Balance returns the native token balance in wei
	Balance(ctx context.Context) (*big.Int, error)
	// TokenBalance returns the ERC20 balance of the wallet
	TokenBalance(ctx context.Context, token common.Address) (*big.Int, error)
	// Allowance returns the ERC20 allowance granted to spender
	Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error)
	// Approve sends an ERC20 approval and returns the transaction hash
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error)
	// WaitMined blocks until the transaction is mined successfully
	WaitMined(ctx context.Context, txHash string) error
	// Close releases the underlying connection
	Close()
}

// New selects a wallet backend from configuration. The two backends are
// functionally interchangeable.
func New(cfg config.EVMConfig) (Wallet, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("EVM RPC URL not configured")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("EVM private key not configured")
	}

	switch cfg.Client {
	case config.ClientGeth, "":
		return NewGethWallet(cfg)
	case config.ClientJSONRPC:
		return NewRPCWallet(cfg)
	default:
		return nil, fmt.Errorf("unknown EVM client backend: %s", cfg.Client)
	}
}

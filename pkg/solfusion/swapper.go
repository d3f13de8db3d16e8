package solfusion

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/1inch/sdks-examples/config"
)

// ChainID is the network identifier the Fusion API uses for Solana
const ChainID uint64 = 501

// WrappedSOL is the native mint; swaps from SOL go through it
const WrappedSOL = "So11111111111111111111111111111111111111112"

// feeLamports is the headroom kept for transaction fees
const feeLamports = 10000

// Swapper drives the Solana side of a Fusion swap: balance checks,
// escrow order creation, and signature confirmation.
type Swapper struct {
	client     *rpc.Client
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	cfg        config.SolanaConfig
}

// New creates a Swapper from configuration
func New(cfg config.SolanaConfig) (*Swapper, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("Solana RPC URL not configured")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("Solana private key not configured")
	}

	privateKey, err := solana.PrivateKeyFromBase58(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &Swapper{
		client:     rpc.New(cfg.RPCUrl),
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
		cfg:        cfg,
	}, nil
}

// PublicKey returns the maker's wallet address
func (s *Swapper) PublicKey() solana.PublicKey {
	return s.publicKey
}

// EnsureBalance verifies the wallet can fund the order before any
// state-changing call. The escrow debits the maker's token account for
// the mint, so that account is checked even for wrapped SOL; fees are
// always paid from the native balance.
func (s *Swapper) EnsureBalance(ctx context.Context, mint string, amount uint64) error {
	native, err := s.client.GetBalance(ctx, s.publicKey, s.commitment())
	if err != nil {
		return fmt.Errorf("failed to get balance: %w", err)
	}
	if native.Value < feeLamports {
		return fmt.Errorf("insufficient SOL for fees: have %d lamports, need %d", native.Value, feeLamports)
	}

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return fmt.Errorf("invalid mint address: %w", err)
	}

	tokenAccount, _, err := solana.FindAssociatedTokenAddress(s.publicKey, mintKey)
	if err != nil {
		return fmt.Errorf("failed to derive token account: %w", err)
	}

	balanceInfo, err := s.client.GetTokenAccountBalance(ctx, tokenAccount, s.commitment())
	if err != nil {
		if mint == WrappedSOL {
			return fmt.Errorf("no wrapped SOL token account: wrap native SOL first: %w", err)
		}
		return fmt.Errorf("failed to get token balance: %w", err)
	}

	balance, err := strconv.ParseUint(balanceInfo.Value.Amount, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse token balance: %w", err)
	}

	if balance < amount {
		if mint == WrappedSOL {
			return fmt.Errorf("insufficient wrapped SOL: have %d, need %d (wrap native SOL first)", balance, amount)
		}
		return fmt.Errorf("insufficient token balance: have %d, need %d", balance, amount)
	}
	return nil
}

// TokenDecimals reads the decimals value from the mint account
func (s *Swapper) TokenDecimals(ctx context.Context, mint string) (uint8, error) {
	if mint == WrappedSOL {
		return 9, nil
	}

	mintKey, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address: %w", err)
	}

	accountInfo, err := s.client.GetAccountInfo(ctx, mintKey)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if accountInfo.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}

	// decimals lives at byte offset 44 of the mint account layout
	data := accountInfo.Value.Data.GetBinary()
	if len(data) < 45 {
		return 0, fmt.Errorf("invalid mint account data")
	}
	return data[44], nil
}

// SendOrder signs and submits the escrow order transaction
func (s *Swapper) SendOrder(ctx context.Context, params *OrderParams) (solana.Signature, error) {
	instructions, err := s.buildOrderInstructions(ctx, params)
	if err != nil {
		return solana.Signature{}, err
	}

	recent, err := s.client.GetLatestBlockhash(ctx, s.commitment())
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		instructions,
		recent.Value.Blockhash,
		solana.TransactionPayer(s.publicKey),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       s.cfg.SkipPreflight,
		PreflightCommitment: s.commitment(),
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig, nil
}

// ConfirmSignature polls the cluster until the signature is finalized or
// ctx expires
func (s *Swapper) ConfirmSignature(ctx context.Context, sig solana.Signature, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		statuses, err := s.client.GetSignatureStatuses(ctx, true, sig)
		if err == nil && len(statuses.Value) > 0 && statuses.Value[0] != nil {
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed on-chain: %v", sig, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed ||
				status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not confirmed: %w", sig, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Swapper) commitment() rpc.CommitmentType {
	switch strings.ToLower(s.cfg.Commitment) {
	case "finalized":
		return rpc.CommitmentFinalized
	case "confirmed":
		return rpc.CommitmentConfirmed
	case "processed":
		return rpc.CommitmentProcessed
	default:
		return rpc.CommitmentConfirmed
	}
}

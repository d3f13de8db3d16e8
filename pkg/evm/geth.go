package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/1inch/sdks-examples/config"
)

const receiptPollInterval = 2 * time.Second

// GethWallet implements Wallet on top of the go-ethereum client
type GethWallet struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    uint64
}

// NewGethWallet connects the ethclient backend
func NewGethWallet(cfg config.EVMConfig) (*GethWallet, error) {
	client, err := ethclient.Dial(cfg.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &GethWallet{
		client:     client,
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    cfg.ChainID,
	}, nil
}

func (w *GethWallet) Address() common.Address {
	return w.address
}

func (w *GethWallet) ChainID() uint64 {
	return w.chainID
}

func (w *GethWallet) Balance(ctx context.Context) (*big.Int, error) {
	balance, err := w.client.BalanceAt(ctx, w.address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance, nil
}

func (w *GethWallet) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	data, err := PackBalanceOf(w.address)
	if err != nil {
		return nil, err
	}

	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	return UnpackUint256(result), nil
}

func (w *GethWallet) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	data, err := PackAllowance(w.address, spender)
	if err != nil {
		return nil, err
	}

	result, err := w.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call allowance: %w", err)
	}

	return UnpackUint256(result), nil
}

func (w *GethWallet) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error) {
	data, err := PackApprove(spender, amount)
	if err != nil {
		return "", err
	}

	nonce, err := w.client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := w.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	// Approvals are cheap but estimation still covers non-standard tokens
	gasLimit := uint64(60000)
	estimated, err := w.client.EstimateGas(ctx, ethereum.CallMsg{
		From: w.address,
		To:   &token,
		Data: data,
	})
	if err == nil {
		gasLimit = estimated * 120 / 100
	}

	tx := types.NewTransaction(nonce, token, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(new(big.Int).SetUint64(w.chainID)), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signedTx.Hash().Hex(), nil
}

func (w *GethWallet) WaitMined(ctx context.Context, txHash string) error {
	hash := common.HexToHash(txHash)

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := w.client.TransactionReceipt(ctx, hash)
		if receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				return fmt.Errorf("transaction %s reverted", txHash)
			}
			return nil
		}
		if err != nil && err != ethereum.NotFound {
			return fmt.Errorf("failed to get receipt: %w", err)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not mined: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (w *GethWallet) Close() {
	if w.client != nil {
		w.client.Close()
	}
}

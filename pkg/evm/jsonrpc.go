package evm

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/1inch/sdks-examples/config"
)

var errReceiptNotFound = errors.New("receipt not found")

// RPCWallet implements Wallet over raw JSON-RPC calls, with local
// signing. It only depends on net/http for transport.
type RPCWallet struct {
	endpoint   string
	httpClient *http.Client
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chainID    uint64
	log        zerolog.Logger
	nextID     int
}

// NewRPCWallet connects the raw JSON-RPC backend
func NewRPCWallet(cfg config.EVMConfig) (*RPCWallet, error) {
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &RPCWallet{
		endpoint:   cfg.RPCUrl,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
		chainID:    cfg.ChainID,
		log:        zerolog.Nop(),
		nextID:     1,
	}, nil
}

// SetLogger attaches a logger for wire-level debug output
func (w *RPCWallet) SetLogger(log zerolog.Logger) {
	w.log = log
}

func (w *RPCWallet) Address() common.Address {
	return w.address
}

func (w *RPCWallet) ChainID() uint64 {
	return w.chainID
}

func (w *RPCWallet) Balance(ctx context.Context) (*big.Int, error) {
	result, err := w.call(ctx, "eth_getBalance", w.address.Hex(), "latest")
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return parseHexBig(result.String())
}

func (w *RPCWallet) TokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	data, err := PackBalanceOf(w.address)
	if err != nil {
		return nil, err
	}
	return w.ethCall(ctx, token, data, "balanceOf")
}

func (w *RPCWallet) Allowance(ctx context.Context, token, spender common.Address) (*big.Int, error) {
	data, err := PackAllowance(w.address, spender)
	if err != nil {
		return nil, err
	}
	return w.ethCall(ctx, token, data, "allowance")
}

func (w *RPCWallet) Approve(ctx context.Context, token, spender common.Address, amount *big.Int) (string, error) {
	data, err := PackApprove(spender, amount)
	if err != nil {
		return "", err
	}

	nonceRes, err := w.call(ctx, "eth_getTransactionCount", w.address.Hex(), "pending")
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}
	nonce, err := parseHexBig(nonceRes.String())
	if err != nil {
		return "", fmt.Errorf("invalid nonce: %w", err)
	}

	gasPriceRes, err := w.call(ctx, "eth_gasPrice")
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}
	gasPrice, err := parseHexBig(gasPriceRes.String())
	if err != nil {
		return "", fmt.Errorf("invalid gas price: %w", err)
	}

	gasLimit := uint64(60000)
	estimateRes, err := w.call(ctx, "eth_estimateGas", map[string]string{
		"from": w.address.Hex(),
		"to":   token.Hex(),
		"data": hexutil.Encode(data),
	})
	if err == nil {
		if estimated, perr := parseHexBig(estimateRes.String()); perr == nil {
			gasLimit = estimated.Uint64() * 120 / 100
		}
	}

	tx := types.NewTransaction(nonce.Uint64(), token, big.NewInt(0), gasLimit, gasPrice, data)

	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(new(big.Int).SetUint64(w.chainID)), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	raw, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode transaction: %w", err)
	}

	txHashRes, err := w.call(ctx, "eth_sendRawTransaction", hexutil.Encode(raw))
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return txHashRes.String(), nil
}

func (w *RPCWallet) WaitMined(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		err := w.checkReceipt(ctx, txHash)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errReceiptNotFound) {
			return err
		}
		w.log.Debug().Str("tx", txHash).Msg("transaction not found, retrying...")

		select {
		case <-ctx.Done():
			return fmt.Errorf("transaction %s not mined: %w", txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (w *RPCWallet) Close() {
	// nothing to release, plain HTTP
}

func (w *RPCWallet) checkReceipt(ctx context.Context, txHash string) error {
	result, err := w.call(ctx, "eth_getTransactionReceipt", txHash)
	if err != nil {
		return err
	}
	if result.Type == gjson.Null {
		return errReceiptNotFound
	}
	if status := result.Get("status").String(); status != "0x1" {
		return fmt.Errorf("transaction %s reverted", txHash)
	}
	return nil
}

func (w *RPCWallet) ethCall(ctx context.Context, to common.Address, data []byte, what string) (*big.Int, error) {
	result, err := w.call(ctx, "eth_call", map[string]string{
		"to":   to.Hex(),
		"data": hexutil.Encode(data),
	}, "latest")
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", what, err)
	}
	return parseHexBig(result.String())
}

// call performs one JSON-RPC request and returns the result field
func (w *RPCWallet) call(ctx context.Context, method string, params ...interface{}) (gjson.Result, error) {
	if params == nil {
		params = []interface{}{}
	}

	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      w.nextID,
		"method":  method,
		"params":  params,
	}
	w.nextID++

	reqData, err := json.Marshal(payload)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode request: %w", err)
	}

	w.log.Debug().Str("method", method).Msg("json-rpc call")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(reqData))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("rpc request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read response: %w", err)
	}

	if rpcErr := gjson.GetBytes(body, "error"); rpcErr.Exists() {
		return gjson.Result{}, fmt.Errorf("rpc error %s: %s",
			rpcErr.Get("code").Raw, rpcErr.Get("message").String())
	}

	return gjson.GetBytes(body, "result"), nil
}

func parseHexBig(s string) (*big.Int, error) {
	if s == "" || s == "0x" {
		return big.NewInt(0), nil
	}
	v, err := hexutil.DecodeBig(s)
	if err != nil {
		// some nodes return unpadded or zero-padded values
		n, ok := new(big.Int).SetString(strings.TrimPrefix(s, "0x"), 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex value %q", s)
		}
		return n, nil
	}
	return v, nil
}

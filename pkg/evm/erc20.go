package evm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Minimal ERC20 ABI covering the calls the swap flow makes
const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
	{"constant":true,"inputs":[{"name":"_owner","type":"address"},{"name":"_spender","type":"address"}],"name":"allowance","outputs":[{"name":"remaining","type":"uint256"}],"type":"function"},
	{"constant":false,"inputs":[{"name":"_spender","type":"address"},{"name":"_value","type":"uint256"}],"name":"approve","outputs":[{"name":"","type":"bool"}],"type":"function"}
]`

func parsedERC20() (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}
	return parsed, nil
}

// PackBalanceOf encodes a balanceOf call
func PackBalanceOf(owner common.Address) ([]byte, error) {
	parsed, err := parsedERC20()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf: %w", err)
	}
	return data, nil
}

// PackAllowance encodes an allowance call
func PackAllowance(owner, spender common.Address) ([]byte, error) {
	parsed, err := parsedERC20()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("allowance", owner, spender)
	if err != nil {
		return nil, fmt.Errorf("failed to pack allowance: %w", err)
	}
	return data, nil
}

// PackApprove encodes an approve call
func PackApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	parsed, err := parsedERC20()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve: %w", err)
	}
	return data, nil
}

// UnpackUint256 decodes a single uint256 return value
func UnpackUint256(data []byte) *big.Int {
	return new(big.Int).SetBytes(data)
}

// MaxUint256 is the unlimited approval amount
func MaxUint256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

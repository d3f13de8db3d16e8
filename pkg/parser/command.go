package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/1inch/sdks-examples/pkg/types"
)

// Pattern: <amount> <source> TO <dest> where source/dest are token symbols
// or hex/base58 addresses. Matches "1 WETH to USDC", "0.5 0xC02a... to 0xA0b8..."
var swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+(\S+)\s+(?i:TO)\s+(\S+)$`)

// ParseSwapCommand parses a swap command of the form
// "swap 1.5 WETH to USDC" (the leading "swap" is optional).
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(command)
	if len(command) > 5 && strings.EqualFold(command[:5], "swap ") {
		command = strings.TrimSpace(command[5:])
	}

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g., '1.5 WETH to USDC')")
	}

	return &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: NormalizeToken(matches[2]),
		DestToken:   NormalizeToken(matches[3]),
	}, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if req.SourceToken == req.DestToken {
		return fmt.Errorf("source and destination token must differ")
	}
	return nil
}

// NormalizeToken uppercases symbols but leaves addresses untouched so
// checksummed hex and base58 mints survive parsing.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if IsAddress(token) {
		return token
	}
	return strings.ToUpper(token)
}

// IsAddress reports whether the operand looks like a chain address rather
// than a token symbol.
func IsAddress(s string) bool {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return true
	}
	// base58 Solana mints are 32-44 chars and mixed case
	return len(s) >= 32 && len(s) <= 44 && s != strings.ToUpper(s)
}

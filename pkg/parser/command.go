package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// SwapCommand is a parsed natural language swap instruction.
type SwapCommand struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// commandPattern matches "<amount> <source_token> TO <dest_token>".
var commandPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 ETH to USDC"
//   - "1.5 ETH to WBTC"
//   - "100 USDC to DAI"
func ParseSwapCommand(command string) (*SwapCommand, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")

	matches := commandPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 ETH to USDC')")
	}

	cmd := &SwapCommand{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		DestToken:   NormalizeTokenSymbol(matches[3]),
	}
	if cmd.SourceToken == cmd.DestToken {
		return nil, fmt.Errorf("source and destination tokens must differ")
	}

	return cmd, nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Wrapped assets quote at the same rate as the underlying.
	aliases := map[string]string{
		"WETH": "ETH",
		"WBTC": "BTC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}

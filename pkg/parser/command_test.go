package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    SwapCommand
	}{
		{"with swap prefix", "swap 1 ETH to USDC", SwapCommand{"1", "ETH", "USDC"}},
		{"without prefix", "1.5 eth to usdc", SwapCommand{"1.5", "ETH", "USDC"}},
		{"fractional amount", "100.25 USDC to DAI", SwapCommand{"100.25", "USDC", "DAI"}},
		{"wrapped alias", "2 WETH to USDT", SwapCommand{"2", "ETH", "USDT"}},
		{"surrounding whitespace", "  swap 3 ARB to USDC  ", SwapCommand{"3", "ARB", "USDC"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseSwapCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		command string
	}{
		{"empty", ""},
		{"missing amount", "ETH to USDC"},
		{"missing destination", "1 ETH to"},
		{"wrong separator", "1 ETH for USDC"},
		{"negative amount", "-1 ETH to USDC"},
		{"same token after aliasing", "1 WETH to ETH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSwapCommand(tt.command)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeTokenSymbol(t *testing.T) {
	assert.Equal(t, "ETH", NormalizeTokenSymbol("weth"))
	assert.Equal(t, "BTC", NormalizeTokenSymbol(" WBTC "))
	assert.Equal(t, "USDC", NormalizeTokenSymbol("usdc"))
}

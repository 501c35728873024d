package tokens

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSymbols(t *testing.T) {
	assert.Equal(t, []string{"ETH", "WBTC", "USDC", "USDT", "DAI"}, DefaultSymbols(1))
	assert.Equal(t, []string{"ETH", "USDC", "cbETH", "DEGEN"}, DefaultSymbols(8453))
	assert.Equal(t, []string{"ETH", "ARB", "USDC", "USDT", "GMX"}, DefaultSymbols(42161))

	// Unknown chains fall back to the mainnet set.
	assert.Equal(t, DefaultSymbols(1), DefaultSymbols(999))
}

func TestStaticSource(t *testing.T) {
	src := &StaticSource{Icons: map[string]string{"ETH": "eth.png"}}

	m, err := src.Resolve(context.Background(), 1, "ETH")
	require.NoError(t, err)
	assert.Equal(t, Meta{Symbol: "ETH", Icon: "eth.png"}, m)

	_, err = src.Resolve(context.Background(), 1, "DOGE")
	assert.Error(t, err)
}

func TestSanitizeSymbol(t *testing.T) {
	assert.Equal(t, "ETH", sanitizeSymbol(" ETH "))
	assert.Equal(t, "cbETH", sanitizeSymbol("cbETH"))
	assert.Equal(t, "ETH", sanitizeSymbol("../ETH"))
	assert.Equal(t, "", sanitizeSymbol("../.."))
}

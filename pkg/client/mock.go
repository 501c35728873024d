package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"intentswap/pkg/store"
	"intentswap/pkg/swap"
)

// Reference rates for the offline engine, in USD-pegged units.
// Anything unlisted trades at 1.
var mockRates = map[string]string{
	"ETH":   "2400",
	"WETH":  "2400",
	"cbETH": "2400",
	"BTC":   "42000",
	"WBTC":  "42000",
}

const (
	mockFeePct     = "0.003" // 0.3% of fromAmount
	mockNetworkPct = "0.001" // 0.1% of fromAmount
)

// MockEngine prices and executes swaps locally with fixed reference
// rates. It stands in for the pricing and execution services when no
// API credentials are configured, and in tests.
type MockEngine struct {
	Latency time.Duration // simulated round-trip delay
}

// NewMockEngine creates an engine with no simulated latency.
func NewMockEngine() *MockEngine {
	return &MockEngine{}
}

// Quote prices the swap from the reference rate table. Limit orders
// use the requested limit price instead of the market rate.
func (m *MockEngine) Quote(ctx context.Context, req swap.Request) (*swap.Quote, error) {
	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	amt, err := decimal.NewFromString(req.FromAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var toAmount decimal.Decimal
	if req.OrderType == store.OrderTypeLimit && req.LimitPrice != "" {
		limit, err := decimal.NewFromString(req.LimitPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid limit price: %w", err)
		}
		toAmount = amt.Mul(limit)
	} else {
		toAmount = amt.Mul(rateOf(req.FromToken)).Div(rateOf(req.ToToken))
	}

	if !toAmount.IsPositive() {
		return nil, fmt.Errorf("no liquidity for %s/%s", req.FromToken, req.ToToken)
	}

	return &swap.Quote{
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
		FromAmount:  req.FromAmount,
		ToAmount:    toAmount.String(),
		Fee:         amt.Mul(decimal.RequireFromString(mockFeePct)).String(),
		NetworkCost: amt.Mul(decimal.RequireFromString(mockNetworkPct)).String(),
		Slippage:    req.Slippage,
		Handle:      "mock-" + uuid.New().String(),
	}, nil
}

// Execute accepts any quote the engine issued.
func (m *MockEngine) Execute(ctx context.Context, q *swap.Quote) error {
	if err := m.wait(ctx); err != nil {
		return err
	}
	if q.Handle == "" {
		return fmt.Errorf("quote has no execution handle")
	}
	return nil
}

func (m *MockEngine) wait(ctx context.Context) error {
	if m.Latency <= 0 {
		return nil
	}
	select {
	case <-time.After(m.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func rateOf(symbol string) decimal.Decimal {
	if r, ok := mockRates[symbol]; ok {
		return decimal.RequireFromString(r)
	}
	return decimal.NewFromInt(1)
}

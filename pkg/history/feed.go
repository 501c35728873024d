package history

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"

	"intentswap/pkg/order"
)

// feedSymbols is the token universe the synthetic feed draws pairs from.
var feedSymbols = []string{"ETH", "BTC", "USDC", "USDT", "SOL", "MATIC"}

var feedStatuses = []order.Status{order.StatusPending, order.StatusCompleted, order.StatusCancelled}

// Feed generates synthetic order pages, standing in for a server-backed
// order history API. Records are random but internally consistent:
// price always equals toAmount/fromAmount.
type Feed struct {
	rnd *rand.Rand
	now func() time.Time
}

// NewFeed creates a feed seeded for reproducible pages.
func NewFeed(seed int64) *Feed {
	return &Feed{
		rnd: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// Generate produces count synthetic orders with ids starting at startID.
func (f *Feed) Generate(startID, count int) []order.Order {
	out := make([]order.Order, 0, count)

	for i := 0; i < count; i++ {
		fromToken := feedSymbols[f.rnd.Intn(len(feedSymbols))]
		toToken := feedSymbols[f.rnd.Intn(len(feedSymbols))]
		for toToken == fromToken {
			toToken = feedSymbols[f.rnd.Intn(len(feedSymbols))]
		}

		fromAmount := decimal.NewFromFloat(f.rnd.Float64()*10 + 0.1).Round(6)
		toAmount := decimal.NewFromFloat(f.rnd.Float64()*1000 + 10).Round(6)
		age := time.Duration(f.rnd.Float64() * 30 * 24 * float64(time.Hour))

		out = append(out, order.Order{
			ID:         fmt.Sprintf("order_%d", startID+i),
			FromToken:  fromToken,
			ToToken:    toToken,
			FromAmount: fromAmount.String(),
			ToAmount:   toAmount.String(),
			Price:      toAmount.DivRound(fromAmount, order.PriceScale).StringFixed(order.PriceScale),
			Status:     feedStatuses[f.rnd.Intn(len(feedStatuses))],
			Timestamp:  f.now().Add(-age),
			Slippage:   decimal.NewFromFloat(f.rnd.Float64() * 2).Round(1).String(),
			Fee:        fromAmount.Mul(decimal.RequireFromString("0.003")).Round(6).String(),
		})
	}

	return out
}

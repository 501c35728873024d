package history

import (
	"context"
	"sync"
	"time"

	"intentswap/pkg/order"
	"intentswap/pkg/store"
)

const (
	// MaxOrders caps the displayed feed; reaching it means "no more data".
	MaxOrders = 100

	initialBatch = 20
	pageSize     = 15

	// feedIDBase offsets synthetic ids away from anything real.
	feedIDBase = 1000

	defaultPageDelay = time.Second // simulated listing API latency
)

// Controller presents a unified reverse-chronological feed: the
// store's real orders at the head, followed by synthetic pages from
// the supplementary feed. Real orders are never reordered by paging.
type Controller struct {
	mu        sync.Mutex
	store     *store.Store
	feed      *Feed
	synthetic []order.Order
	loading   bool
	hasMore   bool
	pageDelay time.Duration
}

// NewController creates a listing controller and loads the initial
// synthetic batch.
func NewController(st *store.Store, feed *Feed) *Controller {
	return &Controller{
		store:     st,
		feed:      feed,
		synthetic: feed.Generate(feedIDBase, initialBatch),
		hasMore:   true,
		pageDelay: defaultPageDelay,
	}
}

// SetPageDelay overrides the simulated page latency.
func (c *Controller) SetPageDelay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageDelay = d
}

// Orders returns the merged display list.
func (c *Controller) Orders() []order.Order {
	c.mu.Lock()
	synthetic := c.synthetic
	c.mu.Unlock()

	return Merge(c.store.GetState().Orders, synthetic)
}

// Merge combines authoritative store orders with the synthetic paged
// feed. Store orders always occupy the head; neither input is mutated.
func Merge(real, synthetic []order.Order) []order.Order {
	out := make([]order.Order, 0, len(real)+len(synthetic))
	out = append(out, real...)
	out = append(out, synthetic...)
	return out
}

// Loading reports whether a page request is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// HasMore reports whether another page is believed available.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// OnSentinelVisible is the scroll trigger: when the tail sentinel
// comes into view a page load starts, unless one is already in flight
// or the feed is exhausted.
func (c *Controller) OnSentinelVisible(ctx context.Context) bool {
	return c.loadMore(ctx)
}

// loadMore fetches one synthetic page. At most one request runs at a
// time; the ceiling turns further triggers into no-ops.
func (c *Controller) loadMore(ctx context.Context) bool {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return false
	}
	c.loading = true
	start := feedIDBase + len(c.synthetic)
	delay := c.pageDelay
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			c.mu.Lock()
			c.loading = false
			c.mu.Unlock()
			return false
		}
	}

	batch := c.feed.Generate(start, pageSize)

	c.mu.Lock()
	c.synthetic = append(c.synthetic, batch...)
	c.loading = false
	total := len(c.synthetic) + len(c.store.GetState().Orders)
	if total >= MaxOrders {
		c.hasMore = false
	}
	c.mu.Unlock()

	return true
}

// Cancel performs an optimistic local-first cancellation: the store is
// told immediately and the displayed copy is patched to match, without
// waiting for any external confirmation.
func (c *Controller) Cancel(id string) {
	c.store.Dispatch(store.CancelOrder{ID: id})

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.synthetic {
		if c.synthetic[i].ID == id && c.synthetic[i].CanCancel() {
			patched := make([]order.Order, len(c.synthetic))
			copy(patched, c.synthetic)
			patched[i].Status = order.StatusCancelled
			c.synthetic = patched
			break
		}
	}
}

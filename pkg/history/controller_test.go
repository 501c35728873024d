package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentswap/pkg/order"
	"intentswap/pkg/store"
)

func newTestController(t *testing.T) (*Controller, *store.Store) {
	t.Helper()

	st := store.New(&store.MemoryPort{}, nil, nil)
	st.Init()
	t.Cleanup(st.Close)

	c := NewController(st, NewFeed(1))
	c.SetPageDelay(0)
	return c, st
}

func placedOrder(t *testing.T) order.Order {
	t.Helper()
	o, err := order.New("ETH", "USDC", "1", "2400", "Auto", "0.003")
	require.NoError(t, err)
	return *o
}

func TestController_InitialBatch(t *testing.T) {
	c, _ := newTestController(t)

	got := c.Orders()
	require.Len(t, got, initialBatch)
	assert.Equal(t, "order_1000", got[0].ID)
	assert.True(t, c.HasMore())
	assert.False(t, c.Loading())
}

func TestController_StoreOrdersLeadTheFeed(t *testing.T) {
	c, st := newTestController(t)

	mine := placedOrder(t)
	st.Dispatch(store.AddOrder{Order: mine})

	got := c.Orders()
	require.Len(t, got, initialBatch+1)
	assert.Equal(t, mine.ID, got[0].ID)

	// Paging grows the tail without displacing real orders.
	require.True(t, c.OnSentinelVisible(context.Background()))
	got = c.Orders()
	require.Len(t, got, initialBatch+pageSize+1)
	assert.Equal(t, mine.ID, got[0].ID)
}

func TestController_LoadMoreAppendsPage(t *testing.T) {
	c, _ := newTestController(t)

	require.True(t, c.OnSentinelVisible(context.Background()))

	got := c.Orders()
	require.Len(t, got, initialBatch+pageSize)
	assert.Equal(t, "order_1020", got[initialBatch].ID)
	assert.Equal(t, "order_1034", got[len(got)-1].ID)
	assert.False(t, c.Loading())
}

func TestController_SingleRequestInFlight(t *testing.T) {
	c, _ := newTestController(t)
	c.SetPageDelay(100 * time.Millisecond)

	done := make(chan bool, 1)
	go func() {
		done <- c.OnSentinelVisible(context.Background())
	}()

	// Wait for the first request to take the in-flight slot.
	deadline := time.Now().Add(2 * time.Second)
	for !c.Loading() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	require.True(t, c.Loading())

	assert.False(t, c.OnSentinelVisible(context.Background()), "second trigger must coalesce")
	assert.True(t, <-done)
	assert.Len(t, c.Orders(), initialBatch+pageSize)
}

func TestController_StopsAtCeiling(t *testing.T) {
	c, _ := newTestController(t)

	pages := 0
	for c.OnSentinelVisible(context.Background()) {
		pages++
		require.Less(t, pages, 20, "feed must exhaust")
	}

	assert.False(t, c.HasMore())
	assert.GreaterOrEqual(t, len(c.Orders()), MaxOrders)

	// Further sentinel sightings are no-ops.
	before := len(c.Orders())
	assert.False(t, c.OnSentinelVisible(context.Background()))
	assert.Equal(t, before, len(c.Orders()))
}

func TestController_LoadMoreCancelled(t *testing.T) {
	c, _ := newTestController(t)
	c.SetPageDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan bool, 1)
	go func() {
		done <- c.OnSentinelVisible(ctx)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Loading() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	assert.False(t, <-done)
	assert.False(t, c.Loading())
	assert.Len(t, c.Orders(), initialBatch)
}

func TestController_CancelRealOrder(t *testing.T) {
	c, st := newTestController(t)

	mine := placedOrder(t)
	st.Dispatch(store.AddOrder{Order: mine})

	c.Cancel(mine.ID)

	got := c.Orders()
	assert.Equal(t, order.StatusCancelled, got[0].Status)
}

func TestController_CancelSyntheticOrder(t *testing.T) {
	c, _ := newTestController(t)

	var target string
	for _, o := range c.Orders() {
		if o.Status == order.StatusPending {
			target = o.ID
			break
		}
	}
	require.NotEmpty(t, target, "seeded batch must contain a pending order")

	c.Cancel(target)

	for _, o := range c.Orders() {
		if o.ID == target {
			assert.Equal(t, order.StatusCancelled, o.Status)
			return
		}
	}
	t.Fatalf("order %s missing after cancel", target)
}

func TestController_CancelTerminalOrderIsNoop(t *testing.T) {
	c, _ := newTestController(t)

	var target string
	for _, o := range c.Orders() {
		if o.Status == order.StatusCompleted {
			target = o.ID
			break
		}
	}
	require.NotEmpty(t, target, "seeded batch must contain a completed order")

	c.Cancel(target)

	for _, o := range c.Orders() {
		if o.ID == target {
			assert.Equal(t, order.StatusCompleted, o.Status)
			return
		}
	}
	t.Fatalf("order %s missing after cancel", target)
}

package swap

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intentswap/pkg/order"
	"intentswap/pkg/store"
)

// stubProvider returns a canned quote, optionally failing or blocking
// until released.
type stubProvider struct {
	quote   *Quote
	err     error
	block   chan struct{} // when non-nil, Quote waits for it to close
	lastReq Request
}

func (p *stubProvider) Quote(_ context.Context, req Request) (*Quote, error) {
	p.lastReq = req
	if p.block != nil {
		<-p.block
	}
	if p.err != nil {
		return nil, p.err
	}
	q := *p.quote
	return &q, nil
}

type stubExecutor struct {
	err   error
	calls int
}

func (e *stubExecutor) Execute(_ context.Context, _ *Quote) error {
	e.calls++
	return e.err
}

func ethQuote() *Quote {
	return &Quote{
		FromToken:   "ETH",
		ToToken:     "USDC",
		FromAmount:  "1",
		ToAmount:    "2400",
		Fee:         "0.003",
		NetworkCost: "0.001",
		Handle:      "intent-1",
	}
}

func newFlowFixture(t *testing.T, provider QuoteProvider, exec Executor) (*Flow, *store.Store) {
	t.Helper()
	st := store.New(&store.MemoryPort{}, nil, nil)
	st.Init()
	t.Cleanup(st.Close)
	st.Dispatch(store.SetUser{User: &store.User{Address: "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"}})

	return New(st, provider, exec, nil), st
}

func TestFlow_StartsCreating(t *testing.T) {
	f, _ := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{})
	assert.Equal(t, PhaseCreating, f.Phase())
	assert.Nil(t, f.Quote())
	assert.False(t, f.QuotePanelVisible())
}

func TestFlow_SubmitRequiresAmount(t *testing.T) {
	f, _ := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{})

	assert.False(t, f.CanSubmit())
	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyAmount)
	assert.Equal(t, PhaseCreating, f.Phase())
}

func TestFlow_SubmitRequiresIdentity(t *testing.T) {
	f, st := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{})
	st.Dispatch(store.SetUser{User: nil})

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, PhaseCreating, f.Phase())
	assert.NotEmpty(t, f.Err())
	assert.True(t, f.QuotePanelVisible())
}

func TestFlow_SubmitFetchesQuote(t *testing.T) {
	provider := &stubProvider{quote: ethQuote()}
	f, st := newFlowFixture(t, provider, &stubExecutor{})
	st.Dispatch(store.SetSlippage{Slippage: "0.5"})

	f.SetFromAmount("1")
	placed, err := f.Submit(context.Background())
	require.NoError(t, err)

	assert.Nil(t, placed)
	assert.Equal(t, PhaseConfirming, f.Phase())

	q := f.Quote()
	require.NotNil(t, q)
	assert.Equal(t, "2400.000000", q.Rate)
	assert.Equal(t, "0.5", q.Slippage)
	// 2400 * (1 - 0.5%)
	assert.Equal(t, "2388.000000", q.MinReceived)

	// Slippage and sender are read from the store at request time.
	assert.Equal(t, "0.5", provider.lastReq.Slippage)
	assert.Equal(t, "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B", provider.lastReq.Sender)
}

func TestFlow_AutoSlippageBuffer(t *testing.T) {
	f, _ := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{})

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	q := f.Quote()
	require.NotNil(t, q)
	assert.Equal(t, order.SlippageAuto, q.Slippage)
	// 2400 * (1 - 0.005)
	assert.Equal(t, "2388.000000", q.MinReceived)
}

func TestFlow_QuoteFailureReverts(t *testing.T) {
	f, _ := newFlowFixture(t, &stubProvider{err: fmt.Errorf("pricing service down")}, &stubExecutor{})

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())

	assert.Error(t, err)
	assert.Equal(t, PhaseCreating, f.Phase())
	assert.Contains(t, f.Err(), "pricing service down")
	assert.True(t, f.QuotePanelVisible())

	f.DismissError()
	assert.False(t, f.QuotePanelVisible())
}

func TestFlow_InputChangeClearsHeldQuote(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(f *Flow)
	}{
		{"from token", func(f *Flow) { f.SetFromToken("WBTC") }},
		{"to token", func(f *Flow) { f.SetToToken("DAI") }},
		{"from amount", func(f *Flow) { f.SetFromAmount("2") }},
		{"order type", func(f *Flow) { f.SetOrderType(store.OrderTypeLimit) }},
		{"token flip", func(f *Flow) { f.FlipTokens() }},
	}

	for _, m := range mutations {
		t.Run(m.name, func(t *testing.T) {
			f, _ := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{})
			f.SetFromAmount("1")
			_, err := f.Submit(context.Background())
			require.NoError(t, err)
			require.Equal(t, PhaseConfirming, f.Phase())

			m.mutate(f)

			assert.Equal(t, PhaseCreating, f.Phase())
			assert.Nil(t, f.Quote())
		})
	}
}

func TestFlow_StaleQuoteResolutionDiscarded(t *testing.T) {
	provider := &stubProvider{quote: ethQuote(), block: make(chan struct{})}
	f, _ := newFlowFixture(t, provider, &stubExecutor{})

	f.SetFromAmount("1")
	done := make(chan error, 1)
	go func() {
		_, err := f.Submit(context.Background())
		done <- err
	}()

	// The optimistic transition happens before the provider returns.
	waitForPhase(t, f, PhaseConfirming)

	// User edits the amount while the request is in flight.
	f.SetFromAmount("5")
	require.Equal(t, PhaseCreating, f.Phase())

	close(provider.block)
	err := <-done

	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Equal(t, PhaseCreating, f.Phase())
	assert.Nil(t, f.Quote(), "stale resolution must not populate the quote panel")
}

func TestFlow_ConfirmPlacesOrder(t *testing.T) {
	exec := &stubExecutor{}
	f, st := newFlowFixture(t, &stubProvider{quote: ethQuote()}, exec)

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	placed, err := f.Submit(context.Background())
	require.NoError(t, err)
	require.NotNil(t, placed)

	assert.Equal(t, 1, exec.calls)
	assert.Equal(t, "2400.000000", placed.Price)
	assert.Equal(t, order.StatusPending, placed.Status)

	state := st.GetState()
	require.Len(t, state.Orders, 1)
	assert.Equal(t, placed.ID, state.Orders[0].ID)

	// Flow resets for the next swap.
	assert.Equal(t, PhaseCreating, f.Phase())
	assert.Nil(t, f.Quote())
	assert.Empty(t, f.Input().FromAmount)
}

func TestFlow_ConfirmUsesFrozenQuote(t *testing.T) {
	exec := &blockingExecutor{block: make(chan struct{})}
	f, st := newFlowFixture(t, &stubProvider{quote: ethQuote()}, exec)

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	done := make(chan *order.Order, 1)
	go func() {
		placed, _ := f.Submit(context.Background())
		done <- placed
	}()
	waitForPhase(t, f, PhaseSending)

	// The user edits the form while the order is being sent. The
	// placed order must still carry the frozen quote's amounts.
	f.SetFromAmount("9")
	close(exec.block)

	placed := <-done
	require.NotNil(t, placed)
	assert.Equal(t, "1", placed.FromAmount)
	assert.Equal(t, "2400", placed.ToAmount)
	require.Len(t, st.GetState().Orders, 1)
}

func TestFlow_ConcurrentConfirmsExecuteOnce(t *testing.T) {
	exec := &blockingExecutor{block: make(chan struct{})}
	f, st := newFlowFixture(t, &stubProvider{quote: ethQuote()}, exec)

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	done := make(chan *order.Order, 1)
	go func() {
		placed, _ := f.confirm(context.Background())
		done <- placed
	}()
	waitForPhase(t, f, PhaseSending)

	// A second confirm that raced past the phase read must bounce off
	// the locked transition instead of executing the quote again.
	_, err = f.confirm(context.Background())
	assert.ErrorIs(t, err, ErrBusy)

	close(exec.block)
	placed := <-done
	require.NotNil(t, placed)
	assert.Equal(t, 1, exec.calls)
	require.Len(t, st.GetState().Orders, 1)
}

type blockingExecutor struct {
	block chan struct{}
	calls int
}

func (e *blockingExecutor) Execute(_ context.Context, _ *Quote) error {
	e.calls++
	<-e.block
	return nil
}

func TestFlow_SubmissionFailureDiscardsOrder(t *testing.T) {
	f, st := newFlowFixture(t, &stubProvider{quote: ethQuote()}, &stubExecutor{err: fmt.Errorf("intent rejected")})

	f.SetFromAmount("1")
	_, err := f.Submit(context.Background())
	require.NoError(t, err)

	placed, err := f.Submit(context.Background())
	assert.Error(t, err)
	assert.Nil(t, placed)

	assert.Equal(t, PhaseCreating, f.Phase())
	assert.Contains(t, f.Err(), "intent rejected")
	// The quote panel stays visible for a retry.
	assert.NotNil(t, f.Quote())
	// No partial order is persisted.
	assert.Empty(t, st.GetState().Orders)
}

func TestMinReceived(t *testing.T) {
	tests := []struct {
		toAmount string
		slippage string
		want     string
	}{
		{"2400", "Auto", "2388.000000"},
		{"2400", "1", "2376.000000"},
		{"2400", "0", "2400.000000"},
		{"100", "50", "50.000000"},
	}

	for _, tt := range tests {
		got, err := minReceived(tt.toAmount, tt.slippage)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "toAmount=%s slippage=%s", tt.toAmount, tt.slippage)
	}
}

func waitForPhase(t *testing.T, f *Flow, want Phase) {
	t.Helper()
	for i := 0; i < 400; i++ {
		if f.Phase() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	require.Equal(t, want, f.Phase())
}

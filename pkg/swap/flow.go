package swap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"intentswap/pkg/order"
	"intentswap/pkg/store"
)

// Phase is the swap flow state. Transitions go creatingSwap ->
// confirmingQuote -> sendingOrder and back to creatingSwap on success
// or any failure.
type Phase string

const (
	PhaseCreating   Phase = "creatingSwap"
	PhaseConfirming Phase = "confirmingQuote"
	PhaseSending    Phase = "sendingOrder"
)

// autoSlippageBuffer is the expected-slippage buffer applied to the
// minimum-received estimate when tolerance is "Auto".
var autoSlippageBuffer = decimal.RequireFromString("0.005")

var (
	ErrNotAuthenticated = errors.New("connect a wallet before requesting a quote")
	ErrEmptyAmount      = errors.New("enter an amount first")
	ErrSuperseded       = errors.New("quote request superseded by newer input")
	ErrNoQuote          = errors.New("no quote to confirm")
	ErrBusy             = errors.New("an order is already being sent")
)

// Request is what the pricing collaborator needs to produce a quote.
type Request struct {
	Sender     string
	FromToken  string
	ToToken    string
	FromAmount string
	ChainID    int64
	OrderType  store.OrderType
	LimitPrice string // only for limit orders
	Slippage   string
}

// Quote is a priced, time-bound proposal returned by the pricing
// collaborator and frozen for confirmation. Handle is the opaque
// reference the execution collaborator settles against.
type Quote struct {
	FromToken   string
	ToToken     string
	FromAmount  string
	ToAmount    string
	Rate        string // toAmount/fromAmount, 6 decimal places
	Fee         string
	NetworkCost string
	Slippage    string
	PriceImpact string // optional, empty when the provider has none
	MinReceived string
	Handle      string
}

// QuoteProvider is the external pricing collaborator.
type QuoteProvider interface {
	Quote(ctx context.Context, req Request) (*Quote, error)
}

// Executor is the external order-execution collaborator.
type Executor interface {
	Execute(ctx context.Context, q *Quote) error
}

// Input is the live swap form state.
type Input struct {
	FromToken  string
	ToToken    string
	FromAmount string
	LimitPrice string
}

// Flow drives one swap order from quote request through submission.
// All mutation goes through its methods; display booleans (quote panel
// visibility and such) are derived, never stored.
type Flow struct {
	mu       sync.Mutex
	phase    Phase
	input    Input
	quote    *Quote
	errMsg   string
	gen      uint64 // bumped on every input change; stale quote results are dropped
	store    *store.Store
	provider QuoteProvider
	exec     Executor
	log      *slog.Logger
}

// New creates a flow in the creatingSwap phase.
func New(st *store.Store, provider QuoteProvider, exec Executor, log *slog.Logger) *Flow {
	if log == nil {
		log = slog.Default()
	}
	return &Flow{
		phase:    PhaseCreating,
		input:    Input{FromToken: "ETH", ToToken: "USDC"},
		store:    st,
		provider: provider,
		exec:     exec,
		log:      log,
	}
}

// Phase returns the current flow state.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Input returns the live form values.
func (f *Flow) Input() Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// Quote returns a copy of the held quote, or nil outside the
// confirmation stage.
func (f *Flow) Quote() *Quote {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.quote == nil {
		return nil
	}
	q := *f.quote
	return &q
}

// Err returns the display error, empty when there is none.
func (f *Flow) Err() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMsg
}

// DismissError clears the display error.
func (f *Flow) DismissError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errMsg = ""
}

// QuotePanelVisible reports whether the quote panel should render.
// Derived from held state, not stored.
func (f *Flow) QuotePanelVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.quote != nil || f.errMsg != ""
}

// SetFromToken changes the source token and discards any held quote.
func (f *Flow) SetFromToken(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input.FromToken == symbol {
		return
	}
	f.input.FromToken = symbol
	f.supersede()
}

// SetToToken changes the destination token and discards any held quote.
func (f *Flow) SetToToken(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input.ToToken == symbol {
		return
	}
	f.input.ToToken = symbol
	f.supersede()
}

// SetFromAmount changes the source amount and discards any held quote.
func (f *Flow) SetFromAmount(amount string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input.FromAmount == amount {
		return
	}
	f.input.FromAmount = amount
	f.supersede()
}

// SetLimitPrice changes the limit price for limit orders.
func (f *Flow) SetLimitPrice(price string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.input.LimitPrice == price {
		return
	}
	f.input.LimitPrice = price
	f.supersede()
}

// SetOrderType switches between swap and limit pricing through the
// store, discarding any held quote.
func (f *Flow) SetOrderType(ot store.OrderType) {
	f.mu.Lock()
	if f.store.GetState().OrderType != ot {
		f.supersede()
	}
	f.mu.Unlock()
	f.store.Dispatch(store.SetOrderType{OrderType: ot})
}

// FlipTokens exchanges the from and to sides, discarding any held quote.
func (f *Flow) FlipTokens() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input.FromToken, f.input.ToToken = f.input.ToToken, f.input.FromToken
	f.supersede()
}

// supersede invalidates any in-flight quote request and returns the
// flow to the creation phase. Callers hold f.mu.
func (f *Flow) supersede() {
	f.gen++
	f.quote = nil
	if f.phase == PhaseConfirming {
		f.phase = PhaseCreating
	}
}

// CanSubmit reports whether the submit affordance is enabled: an
// amount is entered and no order is mid-send.
func (f *Flow) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input.FromAmount != "" && f.phase != PhaseSending
}

// Submit advances the flow. In creatingSwap it requests a quote and
// moves to confirmingQuote; in confirmingQuote it executes the frozen
// quote and records the order. The placed order is returned on the
// second press, nil on the first.
func (f *Flow) Submit(ctx context.Context) (*order.Order, error) {
	f.mu.Lock()
	phase := f.phase
	f.mu.Unlock()

	switch phase {
	case PhaseCreating:
		return nil, f.requestQuote(ctx)
	case PhaseConfirming:
		return f.confirm(ctx)
	default:
		return nil, ErrBusy
	}
}

// requestQuote validates the input, optimistically enters the
// confirmation phase, and asks the pricing collaborator for a quote.
// If the input changed while the request was in flight the resolution
// is discarded.
func (f *Flow) requestQuote(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseCreating {
		f.mu.Unlock()
		return ErrBusy
	}
	if f.input.FromAmount == "" {
		f.mu.Unlock()
		return ErrEmptyAmount
	}
	amt, err := decimal.NewFromString(f.input.FromAmount)
	if err != nil || !amt.IsPositive() {
		f.mu.Unlock()
		return fmt.Errorf("invalid amount %q", f.input.FromAmount)
	}

	state := f.store.GetState()
	if state.User == nil || state.User.Address == "" {
		f.errMsg = ErrNotAuthenticated.Error()
		f.phase = PhaseCreating
		f.mu.Unlock()
		return ErrNotAuthenticated
	}

	req := Request{
		Sender:     state.User.Address,
		FromToken:  f.input.FromToken,
		ToToken:    f.input.ToToken,
		FromAmount: f.input.FromAmount,
		ChainID:    state.ChainID,
		OrderType:  state.OrderType,
		LimitPrice: f.input.LimitPrice,
		Slippage:   state.Slippage,
	}

	// Optimistic transition: the panel flips to confirmation before
	// the quote lands.
	f.phase = PhaseConfirming
	f.errMsg = ""
	gen := f.gen
	f.mu.Unlock()

	q, qerr := f.provider.Quote(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		// Input changed mid-flight; this resolution is stale and must
		// not touch current state.
		f.log.Debug("discarding stale quote", "pair", req.FromToken+"/"+req.ToToken)
		return ErrSuperseded
	}

	if qerr != nil {
		f.phase = PhaseCreating
		f.errMsg = qerr.Error()
		return fmt.Errorf("quote request failed: %w", qerr)
	}

	if err := normalizeQuote(q, req.Slippage); err != nil {
		f.phase = PhaseCreating
		f.errMsg = err.Error()
		return err
	}

	f.quote = q
	return nil
}

// confirm executes the frozen quote. The order is constructed from the
// quote's fields, never re-read from the live form, so edits between
// confirm clicks cannot race the submission.
func (f *Flow) confirm(ctx context.Context) (*order.Order, error) {
	f.mu.Lock()
	// Re-check under the lock: Submit reads the phase without holding
	// it, so two concurrent confirms could both land here.
	if f.phase != PhaseConfirming {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	if f.quote == nil {
		f.mu.Unlock()
		return nil, ErrNoQuote
	}
	frozen := *f.quote
	f.phase = PhaseSending
	f.mu.Unlock()

	execErr := f.exec.Execute(ctx, &frozen)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.phase = PhaseCreating

	if execErr != nil {
		// Keep the quote panel visible so the user can retry.
		f.errMsg = execErr.Error()
		return nil, fmt.Errorf("order submission failed: %w", execErr)
	}

	o, err := order.New(frozen.FromToken, frozen.ToToken, frozen.FromAmount, frozen.ToAmount, frozen.Slippage, frozen.Fee)
	if err != nil {
		f.errMsg = err.Error()
		return nil, err
	}

	f.store.Dispatch(store.AddOrder{Order: *o})

	// Reset the form for the next swap.
	f.quote = nil
	f.input.FromAmount = ""
	f.input.LimitPrice = ""
	f.gen++

	return o, nil
}

// normalizeQuote fills the derived quote fields from the provider's
// amounts: the 6-decimal rate and the minimum-received floor.
func normalizeQuote(q *Quote, slippage string) error {
	rate, err := order.Price(q.FromAmount, q.ToAmount)
	if err != nil {
		return fmt.Errorf("malformed quote: %w", err)
	}
	q.Rate = rate
	if q.Slippage == "" {
		q.Slippage = slippage
	}

	min, err := minReceived(q.ToAmount, q.Slippage)
	if err != nil {
		return fmt.Errorf("malformed quote: %w", err)
	}
	q.MinReceived = min
	return nil
}

// minReceived scales the quoted toAmount by 1 minus the slippage
// buffer. "Auto" uses the default buffer.
func minReceived(toAmount, slippage string) (string, error) {
	to, err := decimal.NewFromString(toAmount)
	if err != nil {
		return "", err
	}

	buffer := autoSlippageBuffer
	if slippage != order.SlippageAuto {
		pct, err := decimal.NewFromString(slippage)
		if err != nil {
			return "", err
		}
		buffer = pct.Div(decimal.NewFromInt(100))
	}

	return to.Mul(decimal.NewFromInt(1).Sub(buffer)).StringFixed(order.PriceScale), nil
}

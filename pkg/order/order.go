package order

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimal places a stored order price carries.
const PriceScale = 6

// SlippageAuto is the tolerance marker used when the user lets the
// engine pick a slippage value.
const SlippageAuto = "Auto"

// Status defines the lifecycle state of a swap order
type Status string

const (
	StatusPending   Status = "pending"   // Order submitted, awaiting settlement
	StatusCompleted Status = "completed" // Order settled
	StatusCancelled Status = "cancelled" // Order cancelled by the user
)

// Terminal returns true once an order can no longer change status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Order represents a recorded swap request.
// All monetary values are decimal strings, never binary floats.
type Order struct {
	ID         string    `json:"id"`
	FromToken  string    `json:"fromToken"`
	ToToken    string    `json:"toToken"`
	FromAmount string    `json:"fromAmount"`
	ToAmount   string    `json:"toAmount"`
	Price      string    `json:"price"`
	Status     Status    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	Slippage   string    `json:"slippage"`
	Fee        string    `json:"fee"`
}

// New builds a pending order for the given pair. The price is derived
// from the amounts, never taken from the caller.
func New(fromToken, toToken, fromAmount, toAmount, slippage, fee string) (*Order, error) {
	price, err := Price(fromAmount, toAmount)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:         uuid.New().String(),
		FromToken:  fromToken,
		ToToken:    toToken,
		FromAmount: fromAmount,
		ToAmount:   toAmount,
		Price:      price,
		Status:     StatusPending,
		Timestamp:  time.Now(),
		Slippage:   slippage,
		Fee:        fee,
	}

	if err := o.Validate(); err != nil {
		return nil, err
	}

	return o, nil
}

// FormatAmount renders a decimal string with at most places decimal
// places, trimming trailing zeros. Unparseable input passes through
// untouched so display code never fails on it.
func FormatAmount(amount string, places int32) string {
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return amount
	}
	return v.Round(places).String()
}

// Price computes toAmount/fromAmount fixed to PriceScale decimal places.
func Price(fromAmount, toAmount string) (string, error) {
	from, err := decimal.NewFromString(fromAmount)
	if err != nil {
		return "", fmt.Errorf("invalid from amount: %w", err)
	}
	to, err := decimal.NewFromString(toAmount)
	if err != nil {
		return "", fmt.Errorf("invalid to amount: %w", err)
	}
	if from.IsZero() {
		return "", fmt.Errorf("from amount must be greater than 0")
	}

	return to.DivRound(from, PriceScale).StringFixed(PriceScale), nil
}

// Validate checks that the order is well-formed
func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if o.FromToken == "" {
		return fmt.Errorf("source token is required")
	}
	if o.ToToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if o.FromToken == o.ToToken {
		return fmt.Errorf("source and destination tokens must differ")
	}
	if err := validatePositive(o.FromAmount, "from amount"); err != nil {
		return err
	}
	if err := validatePositive(o.ToAmount, "to amount"); err != nil {
		return err
	}
	switch o.Status {
	case StatusPending, StatusCompleted, StatusCancelled:
	default:
		return fmt.Errorf("unknown order status: %s", o.Status)
	}
	if o.Timestamp.IsZero() {
		return fmt.Errorf("order timestamp is required")
	}
	if err := ValidateSlippage(o.Slippage); err != nil {
		return err
	}
	fee, err := decimal.NewFromString(o.Fee)
	if err != nil {
		return fmt.Errorf("invalid fee: %w", err)
	}
	if fee.IsNegative() {
		return fmt.Errorf("fee cannot be negative")
	}
	return nil
}

// UnmarshalJSON restores an order from a persisted snapshot. A missing
// or malformed timestamp is replaced with the current time instead of
// failing the whole restore.
func (o *Order) UnmarshalJSON(data []byte) error {
	type alias Order
	aux := struct {
		Timestamp any `json:"timestamp"`
		*alias
	}{alias: (*alias)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	o.Timestamp = time.Now()
	if s, ok := aux.Timestamp.(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			o.Timestamp = ts
		}
	}
	return nil
}

// CanCancel reports whether the order may still transition to cancelled.
// Terminal orders are immutable.
func (o *Order) CanCancel() bool {
	return !o.Status.Terminal()
}

// ValidateSlippage checks a slippage tolerance: either the literal
// "Auto" marker or a decimal percentage in [0,100] with at most two
// decimal places.
func ValidateSlippage(s string) error {
	if s == SlippageAuto {
		return nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("invalid slippage: %w", err)
	}
	if v.IsNegative() || v.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("slippage must be between 0 and 100")
	}
	if v.Exponent() < -2 {
		return fmt.Errorf("slippage supports at most 2 decimal places")
	}
	return nil
}

func validatePositive(amount, field string) error {
	if amount == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	v, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", field, err)
	}
	if !v.IsPositive() {
		return fmt.Errorf("%s must be greater than 0", field)
	}
	return nil
}

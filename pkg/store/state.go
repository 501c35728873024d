package store

import (
	"intentswap/pkg/order"
	"intentswap/pkg/tokens"
)

// Theme selects the display palette
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// OrderType selects how a swap is priced
type OrderType string

const (
	OrderTypeSwap  OrderType = "swap"
	OrderTypeLimit OrderType = "limit"
)

// User is the wallet identity projection, set by the authentication
// collaborator. Nil means no authenticated session.
type User struct {
	Address string `json:"address,omitempty"`
}

// State is the single application state snapshot. Orders are newest
// first; index 0 is the most recent.
type State struct {
	Orders          []order.Order `json:"orders"`
	Theme           Theme         `json:"theme"`
	OrderType       OrderType     `json:"orderType"`
	Slippage        string        `json:"slippage"`
	ChainID         int64         `json:"chainId"`
	SupportedTokens []tokens.Meta `json:"supportedTokens"`
	GlobalLoading   bool          `json:"globalLoading"`
	GlobalError     string        `json:"globalError,omitempty"`
	User            *User         `json:"user"`
}

// DefaultState returns the state used before any snapshot is restored.
func DefaultState() State {
	return State{
		Orders:    []order.Order{},
		Theme:     ThemeDark,
		OrderType: OrderTypeSwap,
		Slippage:  order.SlippageAuto,
		ChainID:   1,
	}
}

// FindOrder returns the order with the given id, or nil.
func (s *State) FindOrder(id string) *order.Order {
	for i := range s.Orders {
		if s.Orders[i].ID == id {
			return &s.Orders[i]
		}
	}
	return nil
}

package store

import (
	"intentswap/pkg/order"
	"intentswap/pkg/tokens"
)

// Action is the closed set of state transitions the store accepts.
// The unexported marker keeps the set sealed so the reducer's type
// switch stays exhaustive.
type Action interface {
	isAction()
}

// AddOrder prepends a newly placed order.
type AddOrder struct {
	Order order.Order
}

// CancelOrder marks the matching pending order cancelled. Unknown ids
// and terminal orders are no-ops.
type CancelOrder struct {
	ID string
}

// ToggleTheme flips between light and dark.
type ToggleTheme struct{}

// SetOrderType switches between swap and limit pricing.
type SetOrderType struct {
	OrderType OrderType
}

// SetSlippage updates the global default tolerance.
type SetSlippage struct {
	Slippage string
}

// SetUser installs or clears the wallet identity projection.
type SetUser struct {
	User *User
}

// AppendOrders adds a page of orders to the tail of the list.
type AppendOrders struct {
	Orders []order.Order
}

// SetChainID switches the active network. The store reacts by
// refreshing the supported token list.
type SetChainID struct {
	ChainID int64
}

// SetTokensLoading marks the token fetch in flight and clears any
// previous error.
type SetTokensLoading struct{}

// SetSupportedTokens replaces the token list wholesale and clears the
// loading and error flags.
type SetSupportedTokens struct {
	Tokens []tokens.Meta
}

// SetGlobalError records a token-fetch failure. The previous token
// list is kept.
type SetGlobalError struct {
	Message string
}

func (AddOrder) isAction()           {}
func (CancelOrder) isAction()        {}
func (ToggleTheme) isAction()        {}
func (SetOrderType) isAction()       {}
func (SetSlippage) isAction()        {}
func (SetUser) isAction()            {}
func (AppendOrders) isAction()       {}
func (SetChainID) isAction()         {}
func (SetTokensLoading) isAction()   {}
func (SetSupportedTokens) isAction() {}
func (SetGlobalError) isAction()     {}

// reduce applies one action to the state and returns the next state.
// It is pure: slices touched by a transition are copied, never mutated
// in place.
func reduce(s State, a Action) State {
	switch a := a.(type) {
	case AddOrder:
		next := make([]order.Order, 0, len(s.Orders)+1)
		next = append(next, a.Order)
		next = append(next, s.Orders...)
		s.Orders = next

	case CancelOrder:
		for i := range s.Orders {
			if s.Orders[i].ID == a.ID && s.Orders[i].CanCancel() {
				next := make([]order.Order, len(s.Orders))
				copy(next, s.Orders)
				next[i].Status = order.StatusCancelled
				s.Orders = next
				break
			}
		}

	case ToggleTheme:
		if s.Theme == ThemeLight {
			s.Theme = ThemeDark
		} else {
			s.Theme = ThemeLight
		}

	case SetOrderType:
		s.OrderType = a.OrderType

	case SetSlippage:
		s.Slippage = a.Slippage

	case SetUser:
		s.User = a.User

	case AppendOrders:
		next := make([]order.Order, 0, len(s.Orders)+len(a.Orders))
		next = append(next, s.Orders...)
		next = append(next, a.Orders...)
		s.Orders = next

	case SetChainID:
		s.ChainID = a.ChainID

	case SetTokensLoading:
		s.GlobalLoading = true
		s.GlobalError = ""

	case SetSupportedTokens:
		s.SupportedTokens = a.Tokens
		s.GlobalLoading = false
		s.GlobalError = ""

	case SetGlobalError:
		s.GlobalError = a.Message
		s.GlobalLoading = false
	}

	return s
}

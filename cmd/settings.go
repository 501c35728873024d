package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intentswap/pkg/order"
	"intentswap/pkg/store"
)

var (
	setSlippage string
	setChain    int64
	toggleDark  bool
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change persisted preferences",
	Long: `Show the persisted preferences, or change them. Changes survive
between runs.

Examples:
  intentswap settings
  intentswap settings --slippage 0.5
  intentswap settings --slippage Auto
  intentswap settings --chain 8453
  intentswap settings --toggle-theme`,
	Run: runSettings,
}

func init() {
	rootCmd.AddCommand(settingsCmd)

	settingsCmd.Flags().StringVar(&setSlippage, "slippage", "", "Set the slippage tolerance ('Auto' or 0-100)")
	settingsCmd.Flags().Int64Var(&setChain, "chain", 0, "Set the active chain id (1, 8453, 42161)")
	settingsCmd.Flags().BoolVar(&toggleDark, "toggle-theme", false, "Switch between light and dark theme")
}

func runSettings(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	changed := false

	if setSlippage != "" {
		if err := order.ValidateSlippage(setSlippage); err != nil {
			printError(err)
			os.Exit(1)
		}
		a.store.Dispatch(store.SetSlippage{Slippage: setSlippage})
		changed = true
	}
	if setChain != 0 {
		a.store.Dispatch(store.SetChainID{ChainID: setChain})
		changed = true
	}
	if toggleDark {
		a.store.Dispatch(store.ToggleTheme{})
		changed = true
	}

	state := a.store.GetState()

	if changed {
		printSuccess(color.GreenString("✓ Settings updated."))
	}

	fmt.Println("Current settings:")
	fmt.Printf("  Chain ID:    %d\n", state.ChainID)
	fmt.Printf("  Slippage:    %s\n", state.Slippage)
	fmt.Printf("  Order Type:  %s\n", state.OrderType)
	fmt.Printf("  Theme:       %s\n", state.Theme)
	switch {
	case a.wallet.CanSign():
		fmt.Printf("  Wallet:      %s (signing)\n", a.wallet.Address)
	case state.User != nil:
		fmt.Printf("  Wallet:      %s (watch-only)\n", state.User.Address)
	default:
		fmt.Printf("  Wallet:      %s\n", color.YellowString("not connected"))
	}
	fmt.Println()
}

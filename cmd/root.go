package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "intentswap",
	Short: "A CLI for intent-based token swaps on EVM chains",
	Long: `intentswap is a command-line front end for intent-based token swaps.
Swaps, limit orders, and settings persist locally between runs, so the
tool picks up exactly where you left off.

Examples:
  intentswap swap 1 ETH to USDC
  intentswap swap 100 USDC to DAI --limit 1.001
  intentswap orders
  intentswap orders --cancel <order-id>
  intentswap tokens
  intentswap settings --chain 8453 --slippage 0.5`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}

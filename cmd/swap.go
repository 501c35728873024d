package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intentswap/pkg/order"
	"intentswap/pkg/parser"
	"intentswap/pkg/store"
	"intentswap/pkg/swap"
)

var (
	limitPrice  string
	slippageOpt string
	noConfirm   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap tokens at the current rate or a limit price",
	Long: `Request a quote and place a swap order.

The quote is held for your confirmation; any change to the inputs
discards it and a fresh one is fetched. Placed orders are stored
locally and listed by 'intentswap orders'.

Examples:
  # Market swap
  intentswap swap 1 ETH to USDC

  # Limit order at a target price
  intentswap swap 100 USDC to DAI --limit 1.001

  # Override the stored slippage tolerance for this order
  intentswap swap 0.5 ETH to USDT --slippage 1.5

  # Skip the confirmation prompt
  intentswap swap 1 ETH to USDC --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&limitPrice, "limit", "", "Place a limit order at this price instead of a market swap")
	swapCmd.Flags().StringVar(&slippageOpt, "slippage", "", "Slippage tolerance percent for this order ('Auto' or 0-100)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	commandStr := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(commandStr)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	if slippageOpt != "" {
		if err := order.ValidateSlippage(slippageOpt); err != nil {
			printError(err)
			os.Exit(1)
		}
		a.store.Dispatch(store.SetSlippage{Slippage: slippageOpt})
	}

	a.flow.SetFromToken(swapReq.SourceToken)
	a.flow.SetToToken(swapReq.DestToken)
	a.flow.SetFromAmount(swapReq.Amount)
	if limitPrice != "" {
		a.flow.SetOrderType(store.OrderTypeLimit)
		a.flow.SetLimitPrice(limitPrice)
	} else {
		a.flow.SetOrderType(store.OrderTypeSwap)
	}

	ctx := cmd.Context()

	// First submit fetches and holds the quote.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	_, err = a.flow.Submit(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quote := a.flow.Quote()
	if quote == nil {
		printError(fmt.Errorf("no quote received"))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayQuote(quote)
	}

	if !noConfirm && !jsonOutput {
		if !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	// Second submit executes against the held quote.
	if !jsonOutput {
		s.Suffix = " Sending order..."
		s.Start()
	}
	placed, err := a.flow.Submit(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(placed, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	printSuccess(color.GreenString("✓ Order placed!"))
	fmt.Printf("  Order ID:  %s\n", color.CyanString(placed.ID))
	fmt.Printf("  Swapped:   %s %s -> %s %s\n", placed.FromAmount, placed.FromToken, placed.ToAmount, placed.ToToken)
	fmt.Printf("  Price:     %s\n", placed.Price)
	fmt.Printf("\nTrack it with:\n")
	color.Cyan("  intentswap orders --id %s\n\n", placed.ID)
}

func displayQuote(q *swap.Quote) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:          %s %s\n", q.FromAmount, color.YellowString(q.FromToken))
	fmt.Printf("  To:            ~%s %s\n", order.FormatAmount(q.ToAmount, 6), color.YellowString(q.ToToken))
	fmt.Printf("  Rate:          1 %s = %s %s\n", q.FromToken, order.FormatAmount(q.Rate, 6), q.ToToken)
	fmt.Printf("  Fee:           %s %s\n", order.FormatAmount(q.Fee, 6), q.FromToken)
	fmt.Printf("  Network Cost:  %s %s\n", order.FormatAmount(q.NetworkCost, 6), q.FromToken)
	fmt.Printf("  Slippage:      %s\n", q.Slippage)
	if q.PriceImpact != "" {
		fmt.Printf("  Price Impact:  %s%%\n", q.PriceImpact)
	}
	fmt.Printf("  Min Received:  %s %s\n", color.CyanString(order.FormatAmount(q.MinReceived, 6)), q.ToToken)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"intentswap/pkg/order"
)

var (
	morePages int
	cancelID  string
	detailsID string
)

var ordersCmd = &cobra.Command{
	Use:     "orders",
	Aliases: []string{"history"},
	Short:   "List, inspect, and cancel orders",
	Long: `Show the order history, newest first. Orders you placed locally
lead the list.

Examples:
  intentswap orders
  intentswap orders --more 2
  intentswap orders --id <order-id>
  intentswap orders --cancel <order-id>`,
	Run: runOrders,
}

func init() {
	rootCmd.AddCommand(ordersCmd)

	ordersCmd.Flags().IntVar(&morePages, "more", 0, "Load this many extra pages of history")
	ordersCmd.Flags().StringVar(&cancelID, "cancel", "", "Cancel the pending order with this id")
	ordersCmd.Flags().StringVar(&detailsID, "id", "", "Show full details for one order")
}

func runOrders(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	if cancelID != "" {
		runCancel(a, cancelID, jsonOutput)
		return
	}

	ctx := cmd.Context()

	if morePages > 0 {
		s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		if !jsonOutput {
			s.Suffix = " Loading more orders..."
			s.Start()
		}
		for i := 0; i < morePages; i++ {
			if !a.listing.OnSentinelVisible(ctx) {
				break
			}
		}
		if !jsonOutput {
			s.Stop()
		}
	}

	orders := a.listing.Orders()

	if detailsID != "" {
		for i := range orders {
			if orders[i].ID == detailsID {
				if jsonOutput {
					jsonData, _ := json.MarshalIndent(orders[i], "", "  ")
					fmt.Println(string(jsonData))
				} else {
					displayOrderDetails(&orders[i])
				}
				return
			}
		}
		printError(fmt.Errorf("order not found: %s", detailsID))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(orders, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayOrderTable(orders, a.listing.HasMore())
}

func runCancel(a *app, id string, jsonOutput bool) {
	state := a.store.GetState()
	target := state.FindOrder(id)
	if target == nil {
		for _, o := range a.listing.Orders() {
			if o.ID == id {
				target = &o
				break
			}
		}
	}
	if target == nil {
		printError(fmt.Errorf("order not found: %s", id))
		os.Exit(1)
	}
	if !target.CanCancel() {
		printError(fmt.Errorf("order %s is already %s", id, target.Status))
		os.Exit(1)
	}

	// Local-first: the cancellation takes effect immediately.
	a.listing.Cancel(id)

	if jsonOutput {
		fmt.Printf(`{"id": %q, "status": %q}`+"\n", id, order.StatusCancelled)
		return
	}
	printSuccess(color.GreenString("✓ Order %s cancelled.", id))
}

func displayOrderTable(orders []order.Order, hasMore bool) {
	if len(orders) == 0 {
		fmt.Println("\nNo orders yet. Place one with 'intentswap swap'.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 78))
	color.Green("                                 ORDERS")
	fmt.Println(strings.Repeat("=", 78))

	fmt.Printf("\n%-14s %-16s %-14s %-12s %-10s %s\n",
		"DATE", "PAIR", "AMOUNT", "PRICE", "STATUS", "ID")
	fmt.Println(strings.Repeat("-", 78))

	for _, o := range orders {
		pair := fmt.Sprintf("%s -> %s", o.FromToken, o.ToToken)
		fmt.Printf("%-14s %-16s %-14s %-12s %-10s %s\n",
			o.Timestamp.Format("Jan 02 15:04"),
			pair,
			order.FormatAmount(o.FromAmount, 6),
			order.FormatAmount(o.Price, 4),
			statusString(o.Status),
			shortID(o.ID),
		)
	}

	fmt.Printf("\n%d orders shown.", len(orders))
	if hasMore {
		fmt.Print(" Run with --more 1 to load older history.")
	}
	fmt.Println()
}

func displayOrderDetails(o *order.Order) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    ORDER DETAILS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Order ID:    %s\n", color.CyanString(o.ID))
	fmt.Printf("  Date:        %s\n", o.Timestamp.Format(time.RFC1123))
	fmt.Printf("  Status:      %s\n", statusString(o.Status))
	fmt.Printf("  From:        %s %s\n", o.FromAmount, color.YellowString(o.FromToken))
	fmt.Printf("  To:          %s %s\n", o.ToAmount, color.YellowString(o.ToToken))
	fmt.Printf("  Price:       %s\n", o.Price)
	fmt.Printf("  Slippage:    %s\n", o.Slippage)
	fmt.Printf("  Fee:         %s %s\n", o.Fee, o.FromToken)

	if total, err := totalCost(o); err == nil {
		fmt.Printf("  Total Cost:  %s %s\n", total, o.FromToken)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

// totalCost is the spent amount plus the fee, both in the source token.
func totalCost(o *order.Order) (string, error) {
	amount, err := decimal.NewFromString(o.FromAmount)
	if err != nil {
		return "", err
	}
	fee, err := decimal.NewFromString(o.Fee)
	if err != nil {
		return "", err
	}
	return amount.Add(fee).String(), nil
}

func statusString(s order.Status) string {
	switch s {
	case order.StatusPending:
		return color.YellowString(string(s))
	case order.StatusCompleted:
		return color.GreenString(string(s))
	case order.StatusCancelled:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}

func shortID(id string) string {
	if len(id) <= 13 {
		return id
	}
	return id[:13] + "..."
}

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"intentswap/pkg/store"
	"intentswap/pkg/tokens"
)

var (
	tokensChain int64
	iconDir     string
)

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the tradable tokens on the active chain",
	Long: `List the tokens available for swapping on the active chain.

Switching chains with --chain persists the selection and refreshes the
token list; tokens whose metadata cannot be resolved are omitted.

Examples:
  intentswap tokens
  intentswap tokens --chain 8453
  intentswap tokens --icons ./icons`,
	Run: runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().Int64Var(&tokensChain, "chain", 0, "Switch to this chain id before listing (1, 8453, 42161)")
	tokensCmd.Flags().StringVar(&iconDir, "icons", "", "Download token icons into this directory")
}

func runTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	if tokensChain != 0 {
		a.store.Dispatch(store.SetChainID{ChainID: tokensChain})
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	state, err := waitForTokens(a.store, 30*time.Second)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if state.GlobalError != "" {
		printError(fmt.Errorf("%s", state.GlobalError))
		os.Exit(1)
	}

	if iconDir != "" && !jsonOutput {
		downloadIcons(cmd, state)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(state.SupportedTokens, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 50))
	color.Green("        TOKENS ON CHAIN %d", state.ChainID)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
	for _, tok := range state.SupportedTokens {
		fmt.Printf("  %-8s %s\n", color.YellowString(tok.Symbol), tok.Icon)
	}
	fmt.Printf("\n%d tokens available.\n\n", len(state.SupportedTokens))
}

// waitForTokens blocks until the refresh kicked off by the chain
// selection settles, one way or the other. A refresh that resolves to
// an empty list still settles; the loading flag dropping is the signal.
func waitForTokens(st *store.Store, timeout time.Duration) (store.State, error) {
	done := make(chan store.State, 1)

	var mu sync.Mutex
	sawLoading := false
	settled := false
	check := func(state store.State) {
		mu.Lock()
		defer mu.Unlock()
		if settled {
			return
		}
		if state.GlobalLoading {
			sawLoading = true
			return
		}
		if sawLoading || len(state.SupportedTokens) > 0 || state.GlobalError != "" {
			settled = true
			done <- state
		}
	}

	unsub := st.Subscribe(check)
	defer unsub()

	// Already settled before we subscribed: nothing left to wait for.
	if state := st.GetState(); !state.GlobalLoading && !st.Refreshing() {
		return state, nil
	}
	check(st.GetState())

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	recheck := time.NewTicker(250 * time.Millisecond)
	defer recheck.Stop()

	for {
		select {
		case state := <-done:
			return state, nil
		case <-recheck.C:
			// Covers a cycle that finished between GetState and
			// Subscribe; no dispatch will arrive for it.
			if state := st.GetState(); !state.GlobalLoading && !st.Refreshing() {
				return state, nil
			}
		case <-deadline.C:
			return st.GetState(), fmt.Errorf("timed out waiting for the token list")
		}
	}
}

func downloadIcons(cmd *cobra.Command, state store.State) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cache, err := tokens.NewIconCache(iconDir)
	if err != nil {
		printError(err)
		return
	}
	source := tokens.NewCDNSource(cache)

	for _, tok := range state.SupportedTokens {
		if _, err := source.Resolve(cmd.Context(), state.ChainID, tok.Symbol); err != nil {
			if verbose {
				fmt.Printf("  icon for %s skipped: %v\n", tok.Symbol, err)
			}
			continue
		}
		if verbose {
			fmt.Printf("  icon saved: %s\n", cache.Path(tok.Symbol))
		}
	}
}

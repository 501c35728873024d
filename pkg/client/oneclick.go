package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"

	"intentswap/pkg/swap"
)

// quoteDeadline is how long a requested quote stays executable.
const quoteDeadline = 24 * time.Hour

// OneClick adapts the 1Click intent API to the flow's pricing and
// execution collaborator interfaces. The quote handle is the intent's
// deposit address.
type OneClick struct {
	client *oneclick.APIClient
	token  string
}

// NewOneClick creates an authenticated 1Click adapter.
func NewOneClick(jwtToken string) *OneClick {
	return &OneClick{
		client: oneclick.NewAPIClient(oneclick.NewConfiguration()),
		token:  jwtToken,
	}
}

func (c *OneClick) auth(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.token)
}

// blockchainSlug maps a numeric chain id to the API's blockchain name.
func blockchainSlug(chainID int64) string {
	switch chainID {
	case 8453:
		return "base"
	case 42161:
		return "arb"
	default:
		return "eth"
	}
}

// SupportedTokens retrieves every token the API can trade.
func (c *OneClick) SupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.auth(ctx)).Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get tokens: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return resp, nil
}

// findToken searches for a token by symbol on a specific chain.
func (c *OneClick) findToken(ctx context.Context, symbol string, chainID int64) (*oneclick.TokenResponse, error) {
	tokens, err := c.SupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	chain := blockchainSlug(chainID)

	for _, token := range tokens {
		if strings.ToUpper(token.GetSymbol()) == symbol &&
			strings.ToLower(token.GetBlockchain()) == chain {
			return &token, nil
		}
	}

	return nil, fmt.Errorf("token '%s' not found on chain '%s'", symbol, chain)
}

// Quote generates a swap quote for the flow.
func (c *OneClick) Quote(ctx context.Context, req swap.Request) (*swap.Quote, error) {
	sourceToken, err := c.findToken(ctx, req.FromToken, req.ChainID)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}
	destToken, err := c.findToken(ctx, req.ToToken, req.ChainID)
	if err != nil {
		return nil, fmt.Errorf("destination token error: %w", err)
	}

	amount, err := decimal.NewFromString(req.FromAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}
	// Scale to the token's smallest unit.
	amountStr := amount.Shift(int32(sourceToken.GetDecimals())).Truncate(0).String()

	if req.Sender == "" {
		return nil, fmt.Errorf("sender address is required")
	}

	bps, err := slippageBps(req.Slippage)
	if err != nil {
		return nil, err
	}

	quoteReq := oneclick.NewQuoteRequest(
		false,                    // dry - false to get a real deposit address
		"EXACT_INPUT",            // swapType
		float32(bps),             // slippageTolerance in basis points
		sourceToken.GetAssetId(), // originAsset
		"ORIGIN_CHAIN",           // depositType
		destToken.GetAssetId(),   // destinationAsset
		amountStr,                // amount in smallest unit
		req.Sender,               // refundTo
		"ORIGIN_CHAIN",           // refundType
		req.Sender,               // recipient
		"DESTINATION_CHAIN",      // recipientType
		time.Now().Add(quoteDeadline),
	)

	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.auth(ctx)).QuoteRequest(*quoteReq).Execute()
	if err != nil {
		return nil, apiError(httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("empty quote response")
	}

	details := resp.GetQuote()

	return &swap.Quote{
		FromToken:  req.FromToken,
		ToToken:    req.ToToken,
		FromAmount: details.GetAmountInFormatted(),
		ToAmount:   details.GetAmountOutFormatted(),
		Fee:        "0", // the intent price is all-in; no separate fee line
		Slippage:   req.Slippage,
		Handle:     details.GetDepositAddress(),
	}, nil
}

// Execute verifies the intent behind the frozen quote is live.
// Settlement itself is owned by the intent network; a handle the API
// does not recognize fails the submission.
func (c *OneClick) Execute(ctx context.Context, q *swap.Quote) error {
	if q.Handle == "" {
		return fmt.Errorf("quote has no execution handle")
	}

	_, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.auth(ctx)).DepositAddress(q.Handle).Execute()
	if err != nil {
		return apiError(httpResp, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status code %d", httpResp.StatusCode)
	}

	return nil
}

// slippageBps converts a tolerance ("Auto" or a percentage) to basis
// points for the API. Auto maps to 1%.
func slippageBps(slippage string) (int32, error) {
	if slippage == "" || slippage == "Auto" {
		return 100, nil
	}
	pct, err := decimal.NewFromString(slippage)
	if err != nil {
		return 0, fmt.Errorf("invalid slippage: %w", err)
	}
	return int32(pct.Mul(decimal.NewFromInt(100)).IntPart()), nil
}

// apiError extracts the real error message from an API response body
// when one is available.
func apiError(httpResp *http.Response, err error) error {
	if httpResp == nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("request failed (status %d): %w", httpResp.StatusCode, err)
	}

	var errorResp map[string]interface{}
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, message)
		}
		if errs, ok := errorResp["errors"]; ok {
			return fmt.Errorf("API error (status %d): %v", httpResp.StatusCode, errs)
		}
	}

	return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(bodyBytes))
}

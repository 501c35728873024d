package tokens

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Meta is the projection of a tradable token used by the UI: its symbol
// and a reference to an icon resource (URL or cached local path).
type Meta struct {
	Symbol string `json:"symbol"`
	Icon   string `json:"icon"`
}

// Source resolves token metadata for a symbol on a given chain.
type Source interface {
	Resolve(ctx context.Context, chainID int64, symbol string) (Meta, error)
}

// DefaultSymbols returns the configured token set for a chain. The list
// is fixed per chain; unknown chains fall back to the Ethereum set.
func DefaultSymbols(chainID int64) []string {
	switch chainID {
	case 8453: // Base
		return []string{"ETH", "USDC", "cbETH", "DEGEN"}
	case 42161: // Arbitrum
		return []string{"ETH", "ARB", "USDC", "USDT", "GMX"}
	default: // Ethereum mainnet
		return []string{"ETH", "WBTC", "USDC", "USDT", "DAI"}
	}
}

// CDNSource resolves token icons against the CoinCap asset CDN.
type CDNSource struct {
	baseURL string
	client  *http.Client
	cache   *IconCache
}

// NewCDNSource creates a CDN-backed metadata source. An optional icon
// cache downloads and normalizes icons to local files; without one the
// remote URL is returned as the icon reference.
func NewCDNSource(cache *IconCache) *CDNSource {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxConnsPerHost = 10
	transport.IdleConnTimeout = 30 * time.Second

	return &CDNSource{
		baseURL: "https://assets.coincap.io/assets/icons",
		client: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
		cache: cache,
	}
}

// Resolve looks up the icon resource for a symbol. The chain id selects
// the asset namespace only; icons themselves are chain-agnostic.
func (s *CDNSource) Resolve(ctx context.Context, chainID int64, symbol string) (Meta, error) {
	safe := sanitizeSymbol(symbol)
	if safe == "" {
		return Meta{}, fmt.Errorf("invalid symbol: %s", symbol)
	}

	url := fmt.Sprintf("%s/%s@2x.png", s.baseURL, strings.ToLower(safe))

	if s.cache != nil {
		path, err := s.cache.Fetch(ctx, safe, url)
		if err != nil {
			return Meta{}, err
		}
		return Meta{Symbol: symbol, Icon: path}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Meta{}, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Meta{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Meta{}, fmt.Errorf("icon lookup for %s: bad status %s", symbol, resp.Status)
	}

	return Meta{Symbol: symbol, Icon: url}, nil
}

// StaticSource serves metadata from a fixed in-memory table. Used in
// tests and when running without network access.
type StaticSource struct {
	Icons map[string]string // symbol -> icon reference
}

func (s *StaticSource) Resolve(_ context.Context, _ int64, symbol string) (Meta, error) {
	icon, ok := s.Icons[symbol]
	if !ok {
		return Meta{}, fmt.Errorf("token '%s' not found", symbol)
	}
	return Meta{Symbol: symbol, Icon: icon}, nil
}

// sanitizeSymbol strips anything that could escape the icon namespace.
func sanitizeSymbol(symbol string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(symbol) {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

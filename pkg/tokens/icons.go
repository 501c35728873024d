package tokens

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

const iconSize = 24 // pixels, square

// IconCache downloads token icons and keeps normalized copies on disk.
type IconCache struct {
	basePath string
	client   *http.Client
}

// NewIconCache creates an icon cache rooted at dir, creating it if needed.
func NewIconCache(dir string) (*IconCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create icon directory: %w", err)
	}

	return &IconCache{
		basePath: dir,
		client:   &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Fetch returns the local path for a symbol's icon, downloading and
// resizing it on a cache miss. Icons are normalized to 24x24.
func (c *IconCache) Fetch(ctx context.Context, symbol, url string) (string, error) {
	path := c.Path(symbol)

	if _, err := os.Stat(path); err == nil {
		return path, nil // cache hit
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	src, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to decode icon: %w", err)
	}

	resized := imaging.Resize(src, iconSize, iconSize, imaging.Lanczos)
	if err := imaging.Save(resized, path); err != nil {
		return "", fmt.Errorf("failed to save icon: %w", err)
	}

	return path, nil
}

// Path returns the cache location for a symbol's icon.
func (c *IconCache) Path(symbol string) string {
	return filepath.Join(c.basePath, strings.ToLower(sanitizeSymbol(symbol))+".png")
}

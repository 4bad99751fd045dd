// Package dexscreener implements a quote source backed by the DexScreener
// search API. Unlike an exchange feed, one search returns pools across many
// DEXes, so quotes carry the pool's dexId as their venue. The API has no
// multi-asset endpoint; the client fans out one request per asset in fixed
// batches and paces itself with a token-bucket limiter.
package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// SourceName identifies this adapter to the aggregator. Individual quotes
// carry the originating DEX instead.
const SourceName = "dexscreener"

// Config holds the client's request-shaping parameters.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.dexscreener.com/latest/dex".
	BaseURL string
	// RequestsPerSec caps the sustained search rate across all batches.
	RequestsPerSec float64
	// BatchSize bounds how many per-asset searches run concurrently.
	BatchSize int
	// BatchDelay is the pause between consecutive batches.
	BatchDelay time.Duration
}

// Client is the REST client for the DexScreener latest/dex API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a DexScreener client with the given request shaping.
func New(cfg Config) *Client {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), cfg.BatchSize),
	}
}

var _ domain.SourceAdapter = (*Client)(nil)

// Name implements domain.SourceAdapter.
func (c *Client) Name() string { return SourceName }

// Fetch searches DexScreener once per asset and returns every pool whose
// base token matches the asset. Searches within a batch run concurrently;
// batches run sequentially with BatchDelay in between. A failed or empty
// search for one asset does not abort the rest; Fetch errors only when
// every search failed.
func (c *Client) Fetch(ctx context.Context, assets []string) ([]domain.Quote, error) {
	var (
		mu      sync.Mutex
		quotes  []domain.Quote
		failed  int
		lastErr error
	)

	for start := 0; start < len(assets); start += c.cfg.BatchSize {
		end := min(start+c.cfg.BatchSize, len(assets))

		if start > 0 && c.cfg.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("dexscreener: pacing wait: %w", ctx.Err())
			case <-time.After(c.cfg.BatchDelay):
			}
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, asset := range assets[start:end] {
			symbol := domain.NormalizeAsset(asset)
			g.Go(func() error {
				if err := c.limiter.Wait(gctx); err != nil {
					return err
				}
				pairs, err := c.searchAsset(gctx, symbol)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed++
					lastErr = err
					return nil
				}
				quotes = append(quotes, pairs...)
				return nil
			})
		}
		// Search failures are tallied, not returned; a batch only errors
		// when the context dies while pacing.
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("dexscreener: pacing wait: %w", err)
		}
	}

	if len(assets) > 0 && failed == len(assets) && lastErr != nil {
		return nil, fmt.Errorf("dexscreener: all searches failed: %w", lastErr)
	}
	return quotes, nil
}

// searchAsset runs one search and converts matching pools to quotes.
func (c *Client) searchAsset(ctx context.Context, symbol string) ([]domain.Quote, error) {
	params := url.Values{}
	params.Set("q", symbol)

	body, err := c.doGet(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", symbol, err)
	}

	var result searchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search %s: %w", symbol, err)
	}

	now := time.Now()
	var quotes []domain.Quote
	for i := range result.Pairs {
		p := &result.Pairs[i]
		if !baseMatches(p.BaseToken.Symbol, symbol) {
			continue
		}
		price, err := strconv.ParseFloat(p.PriceUSD, 64)
		if err != nil || price <= 0 {
			continue
		}
		source := strings.ToLower(p.DexID)
		if source == "" {
			source = SourceName
		}
		quotes = append(quotes, domain.Quote{
			Source:     source,
			AssetPair:  symbol + "/" + domain.NormalizeAsset(p.QuoteToken.Symbol),
			Price:      price,
			Volume24h:  p.Volume.H24,
			ObservedAt: now,
		})
	}
	return quotes, nil
}

// baseMatches accepts the exact symbol and its wrapped form, so a WETH/USDC
// pool counts as an ETH quote.
func baseMatches(base, symbol string) bool {
	b := domain.NormalizeAsset(base)
	return b == symbol || b == "W"+symbol
}

type searchResponse struct {
	Pairs []apiPair `json:"pairs"`
}

type apiPair struct {
	ChainID   string `json:"chainId"`
	DexID     string `json:"dexId"`
	BaseToken struct {
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Symbol string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD string `json:"priceUsd"`
	Volume   struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
}

// doGet sends an unauthenticated GET request to the DexScreener API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, string(body))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

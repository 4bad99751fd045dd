// Package coingecko implements a quote source backed by the CoinGecko
// simple-price REST API. CoinGecko aggregates across exchanges, so its
// quotes represent a market-wide reference price rather than a single
// venue's book.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/alanyoungcy/arbwatch/internal/domain"
)

// SourceName is the venue label stamped on every quote this client emits.
const SourceName = "coingecko"

// idBySymbol maps watchlist symbols to CoinGecko coin IDs. Symbols missing
// here are skipped; CoinGecko addresses coins by ID, not ticker.
var idBySymbol = map[string]string{
	"BTC":   "bitcoin",
	"ETH":   "ethereum",
	"SOL":   "solana",
	"BNB":   "binancecoin",
	"XRP":   "ripple",
	"ADA":   "cardano",
	"DOGE":  "dogecoin",
	"DOT":   "polkadot",
	"ATOM":  "cosmos",
	"AVAX":  "avalanche-2",
	"MATIC": "matic-network",
	"ARB":   "arbitrum",
	"OP":    "optimism",
	"LINK":  "chainlink",
	"UNI":   "uniswap",
	"AAVE":  "aave",
	"CRV":   "curve-dao-token",
	"MKR":   "maker",
	"LTC":   "litecoin",
	"FIL":   "filecoin",
	"GRT":   "the-graph",
	"USDT":  "tether",
	"USDC":  "usd-coin",
	"DAI":   "dai",
}

// Client is the REST client for the CoinGecko v3 API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a CoinGecko client.
//
// baseURL is the API root, e.g. "https://api.coingecko.com/api/v3".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ domain.SourceAdapter = (*Client)(nil)

// Name implements domain.SourceAdapter.
func (c *Client) Name() string { return SourceName }

// Fetch returns one USD quote per requested asset that CoinGecko knows
// about. Assets with no coin ID mapping are skipped silently.
func (c *Client) Fetch(ctx context.Context, assets []string) ([]domain.Quote, error) {
	ids := make([]string, 0, len(assets))
	symbolByID := make(map[string]string, len(assets))
	for _, asset := range assets {
		symbol := domain.NormalizeAsset(asset)
		id, ok := idBySymbol[symbol]
		if !ok {
			continue
		}
		ids = append(ids, id)
		symbolByID[id] = symbol
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	params := url.Values{}
	params.Set("ids", strings.Join(ids, ","))
	params.Set("vs_currencies", "usd")
	params.Set("include_24hr_vol", "true")

	body, err := c.doGet(ctx, "/simple/price?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("coingecko: get simple price: %w", err)
	}

	var prices map[string]struct {
		USD       float64 `json:"usd"`
		USD24hVol float64 `json:"usd_24h_vol"`
	}
	if err := json.Unmarshal(body, &prices); err != nil {
		return nil, fmt.Errorf("coingecko: decode simple price: %w", err)
	}

	now := time.Now()
	quotes := make([]domain.Quote, 0, len(ids))
	for _, id := range ids {
		entry, ok := prices[id]
		if !ok {
			continue
		}
		quotes = append(quotes, domain.Quote{
			Source:     SourceName,
			AssetPair:  symbolByID[id] + "/USD",
			Price:      entry.USD,
			Volume24h:  entry.USD24hVol,
			ObservedAt: now,
		})
	}
	return quotes, nil
}

// doGet sends an unauthenticated GET request to the CoinGecko API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
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

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

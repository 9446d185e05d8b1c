// Package kraken implements the Kraken public market-data API: trade book,
// asset wallet status, listed pairs, and the live ticker used by the
// triangular detector (REST and WebSocket).
package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/venue"
)

// DefaultBaseURL is the Kraken public REST API root.
const DefaultBaseURL = "https://api.kraken.com"

// Client is the REST client for Kraken's public endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Kraken client. baseURL may be empty to use the public
// API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Name returns the venue name.
func (c *Client) Name() string { return "kraken" }

// Provider returns the stable provider id.
func (c *Client) Provider() domain.Provider { return domain.ProviderKraken }

// tickerEntry is one /0/public/Ticker result value. Prices arrive as string
// triples [price, whole lot volume, lot volume].
type tickerEntry struct {
	Ask []string `json:"a"`
	Bid []string `json:"b"`
}

// TradeBook returns best bid/ask for every listed pair, keyed by Kraken's
// pair name (e.g. "XXBTZUSD").
func (c *Client) TradeBook(ctx context.Context) ([]venue.RawQuote, error) {
	var result map[string]tickerEntry
	if err := c.get(ctx, "/0/public/Ticker", &result); err != nil {
		return nil, fmt.Errorf("kraken: trade book: %w", err)
	}

	book := make([]venue.RawQuote, 0, len(result))
	for pair, entry := range result {
		book = append(book, venue.RawQuote{
			Pair:     pair,
			AskPrice: firstFloat(entry.Ask),
			BidPrice: firstFloat(entry.Bid),
		})
	}
	return book, nil
}

// assetEntry is one /0/public/Assets result value.
type assetEntry struct {
	AltName string `json:"altname"`
	Status  string `json:"status"`
}

// WalletStatus derives per-asset transfer availability from the asset status
// field ("enabled", "deposit_only", "withdraw_only", "funding_temporarily_disabled").
func (c *Client) WalletStatus(ctx context.Context) ([]venue.RawWalletStatus, error) {
	var result map[string]assetEntry
	if err := c.get(ctx, "/0/public/Assets", &result); err != nil {
		return nil, fmt.Errorf("kraken: wallet status: %w", err)
	}

	status := make([]venue.RawWalletStatus, 0, len(result))
	for name, entry := range result {
		status = append(status, venue.RawWalletStatus{
			Symbol:      name,
			CanDeposit:  entry.Status == "enabled" || entry.Status == "deposit_only",
			CanWithdraw: entry.Status == "enabled" || entry.Status == "withdraw_only",
		})
	}
	return status, nil
}

// pairEntry is one /0/public/AssetPairs result value.
type pairEntry struct {
	AltName string `json:"altname"`
	WSName  string `json:"wsname"`
}

// ListedPairs returns the altnames of every currently tradeable pair. The
// triangular detector uses this to drop cycles with a delisted leg.
func (c *Client) ListedPairs(ctx context.Context) ([]string, error) {
	var result map[string]pairEntry
	if err := c.get(ctx, "/0/public/AssetPairs", &result); err != nil {
		return nil, fmt.Errorf("kraken: listed pairs: %w", err)
	}

	pairs := make([]string, 0, len(result))
	for _, entry := range result {
		if entry.AltName != "" {
			pairs = append(pairs, entry.AltName)
		}
	}
	return pairs, nil
}

// WSNames maps pair altnames to Kraken's WebSocket pair names (e.g. "XBTUSD"
// -> "XBT/USD") for the requested pairs. Pairs without a WebSocket name are
// omitted.
func (c *Client) WSNames(ctx context.Context, pairs []string) (map[string]string, error) {
	var result map[string]pairEntry
	if err := c.get(ctx, "/0/public/AssetPairs", &result); err != nil {
		return nil, fmt.Errorf("kraken: ws names: %w", err)
	}

	want := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		want[p] = true
	}

	names := make(map[string]string)
	for _, entry := range result {
		if want[entry.AltName] && entry.WSName != "" {
			names[entry.AltName] = entry.WSName
		}
	}
	return names, nil
}

// BestQuotes fetches the full public ticker and returns live best bid/ask for
// exactly the requested pairs, accepting either the pair name or altname.
func (c *Client) BestQuotes(ctx context.Context, pairs []string) (map[string]domain.BestQuote, error) {
	var ticker map[string]tickerEntry
	if err := c.get(ctx, "/0/public/Ticker", &ticker); err != nil {
		return nil, fmt.Errorf("kraken: best quotes: %w", err)
	}
	var listed map[string]pairEntry
	if err := c.get(ctx, "/0/public/AssetPairs", &listed); err != nil {
		return nil, fmt.Errorf("kraken: best quotes: %w", err)
	}

	want := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		want[p] = true
	}

	quotes := make(map[string]domain.BestQuote, len(pairs))
	for name, entry := range ticker {
		key := ""
		switch {
		case want[name]:
			key = name
		case want[listed[name].AltName]:
			key = listed[name].AltName
		default:
			continue
		}
		quotes[key] = domain.BestQuote{
			Pair: key,
			Ask:  firstFloat(entry.Ask),
			Bid:  firstFloat(entry.Bid),
		}
	}
	return quotes, nil
}

// krakenResponse is the common envelope of every public endpoint.
type krakenResponse struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

// get performs a GET against path and decodes the envelope's result into out.
func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d for %s: %s", resp.StatusCode, path, string(body))
	}

	var envelope krakenResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if len(envelope.Error) > 0 {
		return fmt.Errorf("api error for %s: %s", path, strings.Join(envelope.Error, "; "))
	}
	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("decode result of %s: %w", path, err)
	}
	return nil
}

// firstFloat parses the leading element of a Kraken price triple; malformed
// or empty triples map to the absent marker.
func firstFloat(triple []string) float64 {
	if len(triple) == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(triple[0], 64)
	if err != nil {
		return 0
	}
	return f
}

// Package mexc implements the MEXC public book-ticker endpoint.
package mexc

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

// DefaultBaseURL is the MEXC public REST API root.
const DefaultBaseURL = "https://api.mexc.com"

// Client is the REST client for MEXC's public market data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a MEXC client. baseURL may be empty to use the public
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
func (c *Client) Name() string { return "mexc" }

// Provider returns the stable provider id.
func (c *Client) Provider() domain.Provider { return domain.ProviderMEXC }

// bookTicker is one /api/v3/ticker/bookTicker row; prices are strings.
type bookTicker struct {
	Symbol   string `json:"symbol"`
	BidPrice string `json:"bidPrice"`
	AskPrice string `json:"askPrice"`
}

// TradeBook returns best bid/ask for every listed symbol.
func (c *Client) TradeBook(ctx context.Context) ([]venue.RawQuote, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/ticker/bookTicker", nil)
	if err != nil {
		return nil, fmt.Errorf("mexc: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mexc: trade book: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("mexc: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rows []bookTicker
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("mexc: decode trade book: %w", err)
	}

	book := make([]venue.RawQuote, 0, len(rows))
	for _, row := range rows {
		ask, _ := strconv.ParseFloat(row.AskPrice, 64)
		bid, _ := strconv.ParseFloat(row.BidPrice, 64)
		book = append(book, venue.RawQuote{
			Pair:     strings.ToUpper(row.Symbol),
			AskPrice: ask,
			BidPrice: bid,
		})
	}
	return book, nil
}

// WalletStatus requires a signed request on MEXC and is not implemented;
// MEXC quotes therefore never enter the transferable candidate set.
func (c *Client) WalletStatus(context.Context) ([]venue.RawWalletStatus, error) {
	return nil, domain.ErrNotSupported
}

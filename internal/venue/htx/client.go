// Package htx implements the HTX (Huobi) public market-data endpoints.
package htx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/glynfinck/trading/internal/domain"
	"github.com/glynfinck/trading/internal/venue"
)

// DefaultBaseURL is the HTX public REST API root.
const DefaultBaseURL = "https://api.huobi.pro"

// Client is the REST client for HTX's public market data.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an HTX client. baseURL may be empty to use the public
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
func (c *Client) Name() string { return "htx" }

// Provider returns the stable provider id.
func (c *Client) Provider() domain.Provider { return domain.ProviderHTX }

// tickerRow is one /market/tickers row. Symbols are lowercase concatenations.
type tickerRow struct {
	Symbol string  `json:"symbol"`
	Ask    float64 `json:"ask"`
	Bid    float64 `json:"bid"`
}

// TradeBook returns best bid/ask for every listed symbol, upper-cased to the
// common pair form.
func (c *Client) TradeBook(ctx context.Context) ([]venue.RawQuote, error) {
	var rows []tickerRow
	if err := c.get(ctx, "/market/tickers", &rows); err != nil {
		return nil, fmt.Errorf("htx: trade book: %w", err)
	}

	book := make([]venue.RawQuote, 0, len(rows))
	for _, row := range rows {
		book = append(book, venue.RawQuote{
			Pair:     strings.ToUpper(row.Symbol),
			AskPrice: row.Ask,
			BidPrice: row.Bid,
		})
	}
	return book, nil
}

// currencyRow is one /v1/settings/common/currencys row. The "de"/"we" flags
// are deposit/withdraw enablement.
type currencyRow struct {
	Name       string `json:"name"`
	DepositOK  bool   `json:"de"`
	WithdrawOK bool   `json:"we"`
	Visible    bool   `json:"v"`
}

// WalletStatus returns per-currency transfer availability.
func (c *Client) WalletStatus(ctx context.Context) ([]venue.RawWalletStatus, error) {
	var rows []currencyRow
	if err := c.get(ctx, "/v1/settings/common/currencys", &rows); err != nil {
		return nil, fmt.Errorf("htx: wallet status: %w", err)
	}

	status := make([]venue.RawWalletStatus, 0, len(rows))
	for _, row := range rows {
		status = append(status, venue.RawWalletStatus{
			Symbol:      strings.ToUpper(row.Name),
			CanDeposit:  row.DepositOK,
			CanWithdraw: row.WithdrawOK,
		})
	}
	return status, nil
}

// htxResponse is the common data envelope of the public endpoints.
type htxResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	ErrMsg string          `json:"err-msg"`
}

// get performs a GET against path and decodes the envelope's data into out.
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

	var envelope htxResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	if envelope.Status != "" && envelope.Status != "ok" {
		return fmt.Errorf("api error for %s: %s", path, envelope.ErrMsg)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data of %s: %w", path, err)
	}
	return nil
}

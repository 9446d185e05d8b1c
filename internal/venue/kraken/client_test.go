package kraken

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestServer serves canned JSON per endpoint path.
func newTestServer(t *testing.T, responses map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[r.URL.Path]
		if !ok {
			t.Errorf("unexpected request path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

func TestTradeBookParsesPriceTriples(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/Ticker": `{"error":[],"result":{
			"XXBTZUSD":{"a":["50000.1","1","1.000"],"b":["49999.9","2","2.000"]},
			"XETHZUSD":{"a":["3000.5","5","5.000"],"b":["2999.5","1","1.000"]}
		}}`,
	})
	defer srv.Close()

	book, err := NewClient(srv.URL).TradeBook(context.Background())
	if err != nil {
		t.Fatalf("TradeBook: %v", err)
	}
	if len(book) != 2 {
		t.Fatalf("got %d quotes, want 2", len(book))
	}
	prices := make(map[string][2]float64, len(book))
	for _, q := range book {
		prices[q.Pair] = [2]float64{q.AskPrice, q.BidPrice}
	}
	if got := prices["XXBTZUSD"]; got != [2]float64{50000.1, 49999.9} {
		t.Errorf("XXBTZUSD prices = %v", got)
	}
	if got := prices["XETHZUSD"]; got != [2]float64{3000.5, 2999.5} {
		t.Errorf("XETHZUSD prices = %v", got)
	}
}

func TestTradeBookMalformedPriceBecomesAbsent(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/Ticker": `{"error":[],"result":{
			"XXBTZUSD":{"a":["not-a-number","1","1"],"b":[]}
		}}`,
	})
	defer srv.Close()

	book, err := NewClient(srv.URL).TradeBook(context.Background())
	if err != nil {
		t.Fatalf("TradeBook: %v", err)
	}
	if book[0].AskPrice != 0 || book[0].BidPrice != 0 {
		t.Errorf("malformed prices = %v/%v, want 0/0", book[0].AskPrice, book[0].BidPrice)
	}
}

func TestWalletStatusMapsAssetStatuses(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/Assets": `{"error":[],"result":{
			"XXBT":{"altname":"XBT","status":"enabled"},
			"ZUSD":{"altname":"USD","status":"deposit_only"},
			"XETH":{"altname":"ETH","status":"withdraw_only"},
			"TRX":{"altname":"TRX","status":"funding_temporarily_disabled"}
		}}`,
	})
	defer srv.Close()

	rows, err := NewClient(srv.URL).WalletStatus(context.Background())
	if err != nil {
		t.Fatalf("WalletStatus: %v", err)
	}
	byName := make(map[string][2]bool, len(rows))
	for _, r := range rows {
		byName[r.Symbol] = [2]bool{r.CanDeposit, r.CanWithdraw}
	}
	tests := []struct {
		symbol                  string
		canDeposit, canWithdraw bool
	}{
		{"XXBT", true, true},
		{"ZUSD", true, false},
		{"XETH", false, true},
		{"TRX", false, false},
	}
	for _, tt := range tests {
		if got := byName[tt.symbol]; got != [2]bool{tt.canDeposit, tt.canWithdraw} {
			t.Errorf("%s = %v, want [%v %v]", tt.symbol, got, tt.canDeposit, tt.canWithdraw)
		}
	}
}

func TestWSNamesReturnsOnlyRequestedPairs(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/AssetPairs": `{"error":[],"result":{
			"XXBTZUSD":{"altname":"XBTUSD","wsname":"XBT/USD"},
			"XETHZUSD":{"altname":"ETHUSD","wsname":"ETH/USD"},
			"XETHXXBT":{"altname":"ETHXBT","wsname":"ETH/XBT"}
		}}`,
	})
	defer srv.Close()

	names, err := NewClient(srv.URL).WSNames(context.Background(), []string{"XBTUSD", "ETHXBT"})
	if err != nil {
		t.Fatalf("WSNames: %v", err)
	}
	want := map[string]string{"XBTUSD": "XBT/USD", "ETHXBT": "ETH/XBT"}
	if len(names) != len(want) {
		t.Fatalf("got %d names, want %d", len(names), len(want))
	}
	for alt, ws := range want {
		if names[alt] != ws {
			t.Errorf("names[%q] = %q, want %q", alt, names[alt], ws)
		}
	}
}

func TestBestQuotesMatchesNameOrAltname(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/Ticker": `{"error":[],"result":{
			"XXBTZUSD":{"a":["50000","1","1"],"b":["49999","1","1"]},
			"XETHZUSD":{"a":["3000","1","1"],"b":["2999","1","1"]}
		}}`,
		"/0/public/AssetPairs": `{"error":[],"result":{
			"XXBTZUSD":{"altname":"XBTUSD","wsname":"XBT/USD"},
			"XETHZUSD":{"altname":"ETHUSD","wsname":"ETH/USD"}
		}}`,
	})
	defer srv.Close()

	quotes, err := NewClient(srv.URL).BestQuotes(context.Background(), []string{"XBTUSD", "XETHZUSD"})
	if err != nil {
		t.Fatalf("BestQuotes: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if q := quotes["XBTUSD"]; q.Ask != 50000 || q.Bid != 49999 {
		t.Errorf("XBTUSD = %+v", q)
	}
	if q := quotes["XETHZUSD"]; q.Ask != 3000 || q.Bid != 2999 {
		t.Errorf("XETHZUSD = %+v", q)
	}
}

func TestAPIErrorEnvelopeSurfaces(t *testing.T) {
	srv := newTestServer(t, map[string]string{
		"/0/public/Ticker": `{"error":["EGeneral:Internal error"],"result":null}`,
	})
	defer srv.Close()

	_, err := NewClient(srv.URL).TradeBook(context.Background())
	if err == nil {
		t.Fatal("expected error from API error envelope")
	}
	if !strings.Contains(err.Error(), "EGeneral:Internal error") {
		t.Errorf("error %q does not carry the API message", err)
	}
}

package kraken

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/glynfinck/trading/internal/domain"
)

// DefaultWSURL is the Kraken public WebSocket endpoint.
const DefaultWSURL = "wss://ws.kraken.com"

const (
	// writeWait is the time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// readWait is the max silence tolerated before the connection is deemed
	// dead; Kraken emits heartbeats well inside this window.
	readWait = 60 * time.Second

	// pingPeriod sends pings to the peer at this interval. Must be less than
	// readWait.
	pingPeriod = (readWait * 9) / 10

	// reconnectDelay is the base delay before attempting to reconnect.
	reconnectDelay = 2 * time.Second

	// maxReconnectDelay caps the exponential backoff for reconnection.
	maxReconnectDelay = 60 * time.Second
)

// TickerFeed subscribes to Kraken's ticker channel for a fixed set of pairs
// and keeps the latest best bid/ask per pair in memory. It serves the
// triangular detector's per-tick price reads without a REST round trip.
type TickerFeed struct {
	wsURL   string
	wsToAlt map[string]string // "XBT/USD" -> "XBTUSD"

	mu     sync.RWMutex
	quotes map[string]domain.BestQuote // keyed by pair altname

	logger *slog.Logger
}

// NewTickerFeed creates a feed for the given pairs. wsNames maps each pair
// altname to Kraken's WebSocket pair name (see Client.WSNames). wsURL may be
// empty to use the public endpoint.
func NewTickerFeed(wsURL string, wsNames map[string]string, logger *slog.Logger) *TickerFeed {
	if wsURL == "" {
		wsURL = DefaultWSURL
	}
	wsToAlt := make(map[string]string, len(wsNames))
	for alt, ws := range wsNames {
		wsToAlt[ws] = alt
	}
	return &TickerFeed{
		wsURL:   wsURL,
		wsToAlt: wsToAlt,
		quotes:  make(map[string]domain.BestQuote, len(wsNames)),
		logger:  logger.With(slog.String("component", "kraken_ws")),
	}
}

// BestQuotes returns the latest known best bid/ask for the requested pair
// altnames. Pairs with no update yet are simply absent from the result.
func (f *TickerFeed) BestQuotes(_ context.Context, pairs []string) (map[string]domain.BestQuote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]domain.BestQuote, len(pairs))
	for _, p := range pairs {
		if q, ok := f.quotes[p]; ok {
			out[p] = q
		}
	}
	return out, nil
}

// Run connects, subscribes, and consumes ticker updates until ctx is
// cancelled, reconnecting with exponential backoff on connection loss.
func (f *TickerFeed) Run(ctx context.Context) error {
	delay := reconnectDelay
	for {
		err := f.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f.logger.Warn("feed disconnected, reconnecting",
			slog.String("error", err.Error()),
			slog.Duration("delay", delay),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}

// runOnce performs a single connect/subscribe/read session.
func (f *TickerFeed) runOnce(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.wsURL, nil)
	if err != nil {
		return fmt.Errorf("kraken/ws: connect: %w", err)
	}
	defer conn.Close()

	pairs := make([]string, 0, len(f.wsToAlt))
	for ws := range f.wsToAlt {
		pairs = append(pairs, ws)
	}
	sub := map[string]any{
		"event":        "subscribe",
		"pair":         pairs,
		"subscription": map[string]string{"name": "ticker"},
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		return fmt.Errorf("kraken/ws: subscribe: %w", err)
	}
	f.logger.Info("subscribed to ticker channel", slog.Int("pairs", len(pairs)))

	// Close the connection when ctx is cancelled so the blocked read returns.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	// Keep-alive pings.
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(readWait))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("kraken/ws: read: %v: %w", err, domain.ErrWSDisconnect)
		}
		f.handleMessage(payload)
	}
}

// handleMessage updates the quote cache from a ticker frame. Event frames
// (heartbeat, subscriptionStatus, systemStatus) are JSON objects and are
// ignored; ticker frames are arrays [channelID, data, "ticker", "XBT/USD"].
func (f *TickerFeed) handleMessage(payload []byte) {
	if len(payload) == 0 || payload[0] != '[' {
		return
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(payload, &frame); err != nil || len(frame) < 4 {
		return
	}

	var wsName string
	if err := json.Unmarshal(frame[len(frame)-1], &wsName); err != nil {
		return
	}
	alt, ok := f.wsToAlt[wsName]
	if !ok {
		return
	}

	var entry tickerEntry
	if err := json.Unmarshal(frame[1], &entry); err != nil {
		return
	}

	f.mu.Lock()
	f.quotes[alt] = domain.BestQuote{
		Pair: alt,
		Ask:  firstFloat(entry.Ask),
		Bid:  firstFloat(entry.Bid),
	}
	f.mu.Unlock()
}

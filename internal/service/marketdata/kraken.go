package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/symbol"
)

// Client implements a MarketStream backed by the Kraken public WebSocket
// trade feed. Ticks carry canonical symbols; the wire pair names stay inside
// this package.
type Client struct {
	websocketURL   string
	symbols        []string // canonical
	reconnectDelay time.Duration
	pingInterval   time.Duration

	pairs     map[string]string // kraken pair -> canonical symbol
	conn      *websocket.Conn
	connected bool
}

// New creates a Kraken MarketStream for the given canonical symbols.
func New(websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	pairs := make(map[string]string, len(symbols))
	for _, s := range symbols {
		pairs[krakenPair(s)] = s
	}
	return &Client{
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		pairs:          pairs,
	}
}

// krakenPair renders a canonical symbol as Kraken's slash-separated WS pair.
// Kraken keeps its legacy codes for a few bases.
func krakenPair(canonical string) string {
	base := symbol.Base(canonical)
	switch base {
	case "BTC":
		base = "XBT"
	case "DOGE":
		base = "XDG"
	}
	return base + "/USD"
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("kraken connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	return nil
}

// Subscribe subscribes to the trade channel for every configured pair.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("kraken not connected")
	}
	pairs := make([]string, 0, len(c.pairs))
	for p := range c.pairs {
		pairs = append(pairs, p)
	}
	msg := map[string]interface{}{
		"event":        "subscribe",
		"pair":         pairs,
		"subscription": map[string]string{"name": "trade"},
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// Read streams Tick events and errors. Trade frames arrive as JSON arrays:
// [channelID, [[price, volume, time, side, orderType, misc], ...], "trade", pair].
// Event frames (heartbeat, subscriptionStatus) arrive as objects and are
// skipped.
func (c *Client) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("kraken conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("kraken read: %w", err)
					return
				}
				for _, t := range c.parseFrame(b) {
					select {
					case ticks <- t:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

func (c *Client) parseFrame(b []byte) []*models.Tick {
	var frame []json.RawMessage
	if err := json.Unmarshal(b, &frame); err != nil {
		return nil // event object, not trade data
	}
	if len(frame) < 4 {
		return nil
	}
	var channel, pair string
	if err := json.Unmarshal(frame[len(frame)-2], &channel); err != nil || channel != "trade" {
		return nil
	}
	if err := json.Unmarshal(frame[len(frame)-1], &pair); err != nil {
		return nil
	}
	canonical, ok := c.pairs[pair]
	if !ok {
		return nil
	}

	var entries [][]string
	if err := json.Unmarshal(frame[1], &entries); err != nil {
		return nil
	}
	out := make([]*models.Tick, 0, len(entries))
	for _, e := range entries {
		if len(e) < 3 {
			continue
		}
		price, err1 := strconv.ParseFloat(e[0], 64)
		volume, err2 := strconv.ParseFloat(e[1], 64)
		ts, err3 := strconv.ParseFloat(e[2], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		out = append(out, &models.Tick{
			Symbol:    canonical,
			Price:     price,
			Volume:    volume,
			Timestamp: int64(ts),
		})
	}
	return out
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }

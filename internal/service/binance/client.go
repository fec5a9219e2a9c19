package binance

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"finbot/internal/domain/models"
	drepo "finbot/internal/domain/repository"
	applogger "finbot/pkg/logger"

	"github.com/gorilla/websocket"
)

const exchangeName = "BINANCE"

// Client implements a MarketStream backed by the Binance combined
// WebSocket stream.
type Client struct {
	baseURL        string
	symbols        []string // lowercase base symbols, e.g. btc
	reconnectDelay time.Duration
	pingInterval   time.Duration
	insecureTLS    bool
	log            *applogger.Logger

	mu        sync.Mutex // guards conn writes
	conn      *websocket.Conn
	connected atomic.Bool
}

// New creates a new Binance MarketStream.
func New(baseURL string, symbols []string, reconnectDelay, pingInterval time.Duration, insecureTLS bool, log *applogger.Logger) drepo.MarketStream {
	return &Client{
		baseURL:        baseURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		insecureTLS:    insecureTLS,
		log:            log,
	}
}

// streamURL builds the combined-stream endpoint, one ticker stream per
// symbol against the USDT pair.
func (c *Client) streamURL() string {
	streams := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		streams = append(streams, strings.ToLower(strings.TrimSpace(s))+"usdt@ticker")
	}
	return fmt.Sprintf("%s?streams=%s", c.baseURL, strings.Join(streams, "/"))
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	dialer := *websocket.DefaultDialer
	if c.insecureTLS {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	u := c.streamURL()
	conn, _, err := dialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.connected.Store(true)
	c.log.Info("binance: connected", applogger.String("url", u))
	return nil
}

// Subscribe sends an explicit SUBSCRIBE frame for the configured
// streams. The combined-stream URL already subscribes; the frame keeps
// the subscription alive across server-side stream resets.
func (c *Client) Subscribe(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || !c.connected.Load() {
		return fmt.Errorf("binance not connected")
	}

	params := make([]string, 0, len(c.symbols))
	for _, s := range c.symbols {
		params = append(params, strings.ToLower(strings.TrimSpace(s))+"usdt@ticker")
	}
	msg := map[string]interface{}{
		"method": "SUBSCRIBE",
		"params": params,
		"id":     1,
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("binance subscribe: %w", err)
	}
	c.log.Info("binance: subscribed", applogger.Strings("streams", params))
	return nil
}

// envelope is the combined-stream wrapper.
type envelope struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

// frame is an event payload keyed by raw field name. Binance reuses
// letters case-sensitively ("e" event type vs "E" event time) while
// encoding/json matches struct tags case-insensitively, so typed
// structs misroute those fields. Map lookup stays exact.
type frame map[string]json.RawMessage

func (f frame) str(key string) string {
	var s string
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

// millis reads a numeric millisecond timestamp field.
func (f frame) millis(key string) int64 {
	var n int64
	if raw, ok := f[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n
}

// float reads a string-encoded number, Binance's convention for prices
// and quantities.
func (f frame) float(key string) float64 {
	return parseFloat(f.str(key))
}

// Read streams decoded ticks and errors. The returned channels close
// when the read loop exits; a fatal read error is reported on errs
// first.
func (c *Client) Read(ctx context.Context) (<-chan *models.MarketTick, <-chan error) {
	ticks := make(chan *models.MarketTick, 1024)
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
				c.mu.Lock()
				conn := c.conn
				if conn != nil {
					_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
				c.mu.Unlock()
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
				c.mu.Lock()
				conn := c.conn
				c.mu.Unlock()
				if conn == nil {
					errs <- fmt.Errorf("binance conn nil")
					return
				}
				_, b, err := conn.ReadMessage()
				if err != nil {
					c.connected.Store(false)
					errs <- fmt.Errorf("binance read: %w", err)
					return
				}
				tick := decodeTick(b)
				if tick == nil {
					continue
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

// decodeTick parses a raw frame into a MarketTick. It accepts both the
// combined-stream envelope and bare event payloads, and returns nil for
// frames that carry no price event (subscribe acks, unknown events).
func decodeTick(b []byte) *models.MarketTick {
	payload := b
	var env envelope
	if err := json.Unmarshal(b, &env); err == nil && len(env.Data) > 0 {
		payload = env.Data
	}

	var f frame
	if err := json.Unmarshal(payload, &f); err != nil {
		return nil
	}

	switch f.str("e") {
	case "24hrTicker":
		price := f.float("c")
		if price <= 0 {
			return nil
		}
		return &models.MarketTick{
			Symbol:    CleanSymbol(f.str("s")),
			Price:     price,
			Volume:    int64(f.float("v")),
			Timestamp: time.UnixMilli(f.millis("E")),
			Exchange:  exchangeName,
			Bid:       f.float("b"),
			Ask:       f.float("a"),
			High:      f.float("h"),
			Low:       f.float("l"),
			Open:      f.float("o"),
		}
	case "trade":
		price := f.float("p")
		if price <= 0 {
			return nil
		}
		return &models.MarketTick{
			Symbol:    CleanSymbol(f.str("s")),
			Price:     price,
			Volume:    int64(f.float("q")),
			Timestamp: time.UnixMilli(f.millis("T")),
			Exchange:  exchangeName,
		}
	case "kline":
		var k frame
		if raw, ok := f["k"]; ok {
			if err := json.Unmarshal(raw, &k); err != nil {
				return nil
			}
		}
		price := k.float("c")
		if price <= 0 {
			return nil
		}
		// the candle's close time, not the event time
		return &models.MarketTick{
			Symbol:    CleanSymbol(f.str("s")),
			Price:     price,
			Volume:    int64(k.float("v")),
			Timestamp: time.UnixMilli(k.millis("T")),
			Exchange:  exchangeName,
			High:      k.float("h"),
			Low:       k.float("l"),
			Open:      k.float("o"),
		}
	default:
		return nil
	}
}

// CleanSymbol strips the quote-asset suffix from a Binance pair,
// BTCUSDT -> BTC.
func CleanSymbol(pair string) string {
	s := strings.ToUpper(strings.TrimSpace(pair))
	s = strings.TrimSuffix(s, "USDT")
	s = strings.TrimSuffix(s, "BUSD")
	return s
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Reconnect closes and reconnects after the configured delay.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected.Store(false)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected.Load() }

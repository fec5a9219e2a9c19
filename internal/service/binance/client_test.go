package binance

import (
	"testing"
	"time"
)

func TestCleanSymbol(t *testing.T) {
	cases := map[string]string{
		"BTCUSDT":   "BTC",
		"ethusdt":   "ETH",
		"SOLBUSD":   "SOL",
		"XRP":       "XRP",
		" bnbusdt ": "BNB",
	}
	for in, want := range cases {
		if got := CleanSymbol(in); got != want {
			t.Errorf("CleanSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}

// Fixtures carry every field Binance sends live. The single-letter keys
// differ only by case ("E" vs "e", "B" vs "b"), so decoding must route
// each one exactly.
func TestDecodeTickEnvelopedTicker(t *testing.T) {
	frame := []byte(`{"stream":"btcusdt@ticker","data":{"e":"24hrTicker","E":1716900000000,"s":"BTCUSDT","p":"1000.50","P":"1.512","w":"66500.2","x":"65999.9","c":"67000.5","Q":"0.25","b":"66999.9","B":"11.4","a":"67001.1","A":"6.9","o":"66000","h":"68000","l":"65500","v":"1234.5","q":"82000000","O":1716813600000,"C":1716899999999,"F":123456,"L":234567,"n":111111}}`)

	tick := decodeTick(frame)
	if tick == nil {
		t.Fatal("expected a tick, got nil")
	}
	if tick.Symbol != "BTC" {
		t.Errorf("symbol = %q, want BTC", tick.Symbol)
	}
	if tick.Price != 67000.5 {
		t.Errorf("price = %v, want 67000.5", tick.Price)
	}
	if tick.Volume != 1234 {
		t.Errorf("volume = %d, want 1234", tick.Volume)
	}
	if tick.Exchange != "BINANCE" {
		t.Errorf("exchange = %q, want BINANCE", tick.Exchange)
	}
	want := time.UnixMilli(1716900000000)
	if !tick.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want event time %v", tick.Timestamp, want)
	}
	// best bid/ask prices, not the "B"/"A" quantities
	if tick.Bid != 66999.9 || tick.Ask != 67001.1 {
		t.Errorf("bid/ask = %v/%v, want 66999.9/67001.1", tick.Bid, tick.Ask)
	}
	if tick.High != 68000 || tick.Low != 65500 || tick.Open != 66000 {
		t.Errorf("ohl = %v/%v/%v", tick.Open, tick.High, tick.Low)
	}
}

func TestDecodeTickBareTrade(t *testing.T) {
	frame := []byte(`{"e":"trade","E":1716900001005,"s":"ETHUSDT","t":987654,"p":"3500.25","q":"2.5","b":88,"a":99,"T":1716900001000,"m":true,"M":true}`)

	tick := decodeTick(frame)
	if tick == nil {
		t.Fatal("expected a tick, got nil")
	}
	if tick.Symbol != "ETH" {
		t.Errorf("symbol = %q, want ETH", tick.Symbol)
	}
	if tick.Price != 3500.25 {
		t.Errorf("price = %v, want 3500.25", tick.Price)
	}
	if tick.Volume != 2 {
		t.Errorf("volume = %d, want 2", tick.Volume)
	}
	want := time.UnixMilli(1716900001000)
	if !tick.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want trade time %v", tick.Timestamp, want)
	}
}

func TestDecodeTickKline(t *testing.T) {
	frame := []byte(`{"stream":"solusdt@kline_1m","data":{"e":"kline","E":1716900002000,"s":"SOLUSDT","k":{"t":1716899940000,"T":1716899999999,"s":"SOLUSDT","i":"1m","f":100,"L":200,"o":"150","c":"150.75","h":"151","l":"149.5","v":"500","n":85,"x":false,"q":"75000","V":"260","Q":"39000","B":"0"}}}`)

	tick := decodeTick(frame)
	if tick == nil {
		t.Fatal("expected a tick, got nil")
	}
	if tick.Symbol != "SOL" {
		t.Errorf("symbol = %q, want SOL", tick.Symbol)
	}
	if tick.Price != 150.75 {
		t.Errorf("price = %v, want 150.75", tick.Price)
	}
	// base-asset volume "v", not taker volume "V"
	if tick.Volume != 500 {
		t.Errorf("volume = %d, want 500", tick.Volume)
	}
	want := time.UnixMilli(1716899999999)
	if !tick.Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want candle close time %v", tick.Timestamp, want)
	}
	if tick.High != 151 || tick.Low != 149.5 || tick.Open != 150 {
		t.Errorf("ohl = %v/%v/%v", tick.Open, tick.High, tick.Low)
	}
}

func TestDecodeTickIgnoresNonEvents(t *testing.T) {
	frames := [][]byte{
		[]byte(`{"result":null,"id":1}`),                              // subscribe ack
		[]byte(`{"e":"depthUpdate","s":"BTCUSDT"}`),                   // unknown event
		[]byte(`{"e":"24hrTicker","s":"BTCUSDT","c":"0"}`),            // zero price
		[]byte(`{"e":"24hrTicker","s":"BTCUSDT","c":"not-a-number"}`), // bad price
		[]byte(`not json`),                                            // garbage
	}
	for i, f := range frames {
		if tick := decodeTick(f); tick != nil {
			t.Errorf("frame %d: expected nil, got %+v", i, tick)
		}
	}
}

func TestStreamURL(t *testing.T) {
	c := &Client{
		baseURL: "wss://stream.binance.com:9443/stream",
		symbols: []string{"btc", "ETH "},
	}
	want := "wss://stream.binance.com:9443/stream?streams=btcusdt@ticker/ethusdt@ticker"
	if got := c.streamURL(); got != want {
		t.Errorf("streamURL() = %q, want %q", got, want)
	}
}

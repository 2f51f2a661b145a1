package marketdata

import (
	"testing"
)

func testClient(symbols ...string) *Client {
	return New("wss://ws.kraken.com", symbols, 0, 0).(*Client)
}

func TestKrakenPairMapping(t *testing.T) {
	cases := map[string]string{
		"BTCUSD":  "XBT/USD",
		"ETHUSD":  "ETH/USD",
		"DOGEUSD": "XDG/USD",
		"SOLUSD":  "SOL/USD",
	}
	for canonical, want := range cases {
		if got := krakenPair(canonical); got != want {
			t.Errorf("krakenPair(%s) = %s, want %s", canonical, got, want)
		}
	}
}

func TestParseFrameTrade(t *testing.T) {
	c := testClient("BTCUSD")
	frame := []byte(`[337,[["50100.50000","0.15850568","1534614057.321597","s","l",""],["50101.00000","1.00000000","1534614057.324998","b","l",""]],"trade","XBT/USD"]`)

	ticks := c.parseFrame(frame)
	if len(ticks) != 2 {
		t.Fatalf("expected 2 ticks, got %d", len(ticks))
	}
	if ticks[0].Symbol != "BTCUSD" {
		t.Errorf("symbol = %s, want BTCUSD", ticks[0].Symbol)
	}
	if ticks[0].Price != 50100.5 {
		t.Errorf("price = %v, want 50100.5", ticks[0].Price)
	}
	if ticks[0].Volume != 0.15850568 {
		t.Errorf("volume = %v", ticks[0].Volume)
	}
	if ticks[1].Price != 50101.0 {
		t.Errorf("second price = %v", ticks[1].Price)
	}
}

func TestParseFrameSkipsEventObjects(t *testing.T) {
	c := testClient("BTCUSD")
	for _, raw := range []string{
		`{"event":"heartbeat"}`,
		`{"event":"subscriptionStatus","status":"subscribed","pair":"XBT/USD"}`,
		`[337,[["bad","entries"]],"trade","XBT/USD"]`,
	} {
		if got := c.parseFrame([]byte(raw)); len(got) != 0 {
			t.Errorf("parseFrame(%s) returned %d ticks, want 0", raw, len(got))
		}
	}
}

func TestParseFrameUnknownPair(t *testing.T) {
	c := testClient("BTCUSD")
	frame := []byte(`[42,[["1.00","2.00","1534614057.3","b","l",""]],"trade","ADA/USD"]`)
	if got := c.parseFrame(frame); len(got) != 0 {
		t.Errorf("unsubscribed pair produced %d ticks", len(got))
	}
}

func TestParseFrameNonTradeChannel(t *testing.T) {
	c := testClient("BTCUSD")
	frame := []byte(`[42,{"b":[["50000.0","1.0"]]},"book-10","XBT/USD"]`)
	if got := c.parseFrame(frame); len(got) != 0 {
		t.Errorf("book frame produced %d ticks", len(got))
	}
}

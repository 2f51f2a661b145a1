package symbol

import (
	"errors"
	"testing"

	"TradeForge/internal/domain/models"
)

func TestNormalizeVariants(t *testing.T) {
	cases := map[string]string{
		"BTC/USD":  "BTCUSD",
		"btcusd":   "BTCUSD",
		"XBTCUSD":  "BTCUSD",
		"XXBTZUSD": "BTCUSD",
		"  eth ":   "ETHUSD",
		"SOLUSDT":  "SOLUSD",
		"doge/usd": "DOGEUSD",
	}
	for in, want := range cases {
		got, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, canon := range All() {
		got, err := Normalize(canon)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", canon, err)
		}
		if got != canon {
			t.Fatalf("canonical %q changed to %q", canon, got)
		}
		if !IsCanonical(canon) {
			t.Fatalf("IsCanonical(%q) = false", canon)
		}
	}
}

func TestNormalizeUnknown(t *testing.T) {
	for _, in := range []string{"", "WAT", "FOO/BAR"} {
		if _, err := Normalize(in); !errors.Is(err, models.ErrUnknownSymbol) {
			t.Fatalf("Normalize(%q): expected ErrUnknownSymbol, got %v", in, err)
		}
	}
}

func TestValidateRejectsNonCanonical(t *testing.T) {
	if err := Validate("BTCUSD"); err != nil {
		t.Fatalf("canonical rejected: %v", err)
	}
	if err := Validate("BTC/USD"); err == nil {
		t.Fatal("expected rejection of slash form")
	}
	if err := Validate("btcusd"); err == nil {
		t.Fatal("expected rejection of lowercase form")
	}
}

func TestDisplay(t *testing.T) {
	if got := Display("BTCUSD"); got != "BTC/USD" {
		t.Fatalf("Display = %q", got)
	}
}

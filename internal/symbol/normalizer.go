// Package symbol converts the many ticker spellings seen at the edges
// (exchange feeds, dashboards, news taggers) into the one canonical form the
// engine operates on: uppercase, separator-free, explicit USD quote, e.g.
// "BTCUSD". The engine itself fail-fasts on anything non-canonical.
package symbol

import (
	"fmt"
	"strings"

	"TradeForge/internal/domain/models"
)

// mappings covers every known variant, including Kraken's X/Z-prefixed pairs.
var mappings = map[string]string{
	"BTC": "BTCUSD", "BITCOIN": "BTCUSD", "BTC/USD": "BTCUSD", "BTCUSD": "BTCUSD",
	"XBT": "BTCUSD", "XBTUSD": "BTCUSD", "XBTCUSD": "BTCUSD", "XXBTZUSD": "BTCUSD",

	"ETH": "ETHUSD", "ETHEREUM": "ETHUSD", "ETH/USD": "ETHUSD", "ETHUSD": "ETHUSD",
	"XETH": "ETHUSD", "XETHUSD": "ETHUSD",

	"SOL": "SOLUSD", "SOLANA": "SOLUSD", "SOL/USD": "SOLUSD", "SOLUSD": "SOLUSD",

	"XRP": "XRPUSD", "RIPPLE": "XRPUSD", "XRP/USD": "XRPUSD", "XRPUSD": "XRPUSD",
	"XXRPZUSD": "XRPUSD",

	"DOGE": "DOGEUSD", "DOGECOIN": "DOGEUSD", "DOGE/USD": "DOGEUSD", "DOGEUSD": "DOGEUSD",
	"XDOGZUSD": "DOGEUSD",

	"ADA": "ADAUSD", "CARDANO": "ADAUSD", "ADA/USD": "ADAUSD", "ADAUSD": "ADAUSD",
	"DOT": "DOTUSD", "POLKADOT": "DOTUSD", "DOT/USD": "DOTUSD", "DOTUSD": "DOTUSD",
	"LINK": "LINKUSD", "CHAINLINK": "LINKUSD", "LINK/USD": "LINKUSD", "LINKUSD": "LINKUSD",
	"UNI": "UNIUSD", "UNISWAP": "UNIUSD", "UNI/USD": "UNIUSD", "UNIUSD": "UNIUSD",
	"SHIB": "SHIBUSD", "SHIBA": "SHIBUSD", "SHIB/USD": "SHIBUSD", "SHIBUSD": "SHIBUSD",

	"LTC": "LTCUSD", "LITECOIN": "LTCUSD", "LTC/USD": "LTCUSD", "LTCUSD": "LTCUSD",
	"XLTCZUSD": "LTCUSD",

	"XLM": "XLMUSD", "STELLAR": "XLMUSD", "XLM/USD": "XLMUSD", "XLMUSD": "XLMUSD",
	"XXLMZUSD": "XLMUSD",

	"ATOM": "ATOMUSD", "COSMOS": "ATOMUSD", "ATOM/USD": "ATOMUSD", "ATOMUSD": "ATOMUSD",
	"AAVE": "AAVEUSD", "AAVE/USD": "AAVEUSD", "AAVEUSD": "AAVEUSD",
	"MATIC": "MATICUSD", "POLYGON": "MATICUSD", "MATIC/USD": "MATICUSD", "MATICUSD": "MATICUSD",
	"AVAX": "AVAXUSD", "AVALANCHE": "AVAXUSD", "AVAX/USD": "AVAXUSD", "AVAXUSD": "AVAXUSD",
}

// Normalize converts any known symbol variation to canonical form.
// Normalizing an already-canonical symbol returns it unchanged.
func Normalize(s string) (string, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty symbol", models.ErrUnknownSymbol)
	}
	up := strings.ToUpper(strings.TrimSpace(s))
	if canon, ok := mappings[up]; ok {
		return canon, nil
	}
	// USDT-quoted pairs collapse onto their USD pair when known.
	if strings.HasSuffix(up, "USDT") {
		if canon, ok := mappings[strings.TrimSuffix(up, "USDT")+"USD"]; ok {
			return canon, nil
		}
	}
	return "", fmt.Errorf("%w: %q", models.ErrUnknownSymbol, s)
}

// IsCanonical reports whether s is already the canonical spelling.
func IsCanonical(s string) bool {
	canon, err := Normalize(s)
	return err == nil && canon == s
}

// Validate fail-fasts on non-canonical input. The engine core calls this on
// every symbol crossing its boundary instead of silently normalizing.
func Validate(s string) error {
	canon, err := Normalize(s)
	if err != nil {
		return err
	}
	if canon != s {
		return fmt.Errorf("%w: %q is not canonical (want %q)", models.ErrUnknownSymbol, s, canon)
	}
	return nil
}

// Base extracts the base currency from a canonical symbol.
func Base(canonical string) string {
	return strings.TrimSuffix(canonical, "USD")
}

// Display renders a canonical symbol in slash form for humans.
func Display(canonical string) string {
	if base := Base(canonical); base != canonical {
		return base + "/USD"
	}
	return canonical
}

// All returns the set of supported canonical symbols.
func All() []string {
	seen := make(map[string]struct{}, len(mappings))
	out := make([]string, 0, 32)
	for _, canon := range mappings {
		if _, ok := seen[canon]; ok {
			continue
		}
		seen[canon] = struct{}{}
		out = append(out, canon)
	}
	return out
}

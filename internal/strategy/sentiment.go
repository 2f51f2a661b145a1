package strategy

import (
	"context"
	"fmt"
	"strings"

	"TradeForge/internal/domain/models"
)

// Word lists are deliberately small and fixed: the same headlines must always
// score the same way.
var (
	bullishWords = []string{
		"surge", "soar", "rally", "record high", "bullish", "breakout",
		"adoption", "approval", "partnership", "jump", "gain",
	}
	bearishWords = []string{
		"plunge", "collapse", "crash", "bearish", "ban", "hack",
		"lawsuit", "selloff", "dump", "fraud", "drop",
	}
	strongBullish = []string{"surge", "soar", "record high", "bullish", "rally"}
	strongBearish = []string{"plunge", "collapse", "crash", "bearish", "ban"}
)

// Sentiment votes on recent news headlines using a fixed keyword lexicon.
type Sentiment struct{}

func NewSentiment() *Sentiment { return &Sentiment{} }

func (*Sentiment) Name() string { return "sentiment" }

func (s *Sentiment) Evaluate(_ context.Context, _ string, mctx *models.MarketContext) (models.Vote, error) {
	v := models.Vote{Strategy: s.Name(), Direction: models.Hold}
	if mctx == nil || len(mctx.Headlines) == 0 {
		v.Rationale = "no news headlines available"
		return v, nil
	}

	var bulls, bears int
	var strong bool
	for _, h := range mctx.Headlines {
		lower := strings.ToLower(h)
		for _, w := range bullishWords {
			if strings.Contains(lower, w) {
				bulls++
			}
		}
		for _, w := range bearishWords {
			if strings.Contains(lower, w) {
				bears++
			}
		}
		for _, w := range append(append([]string{}, strongBullish...), strongBearish...) {
			if strings.Contains(lower, w) {
				strong = true
			}
		}
	}

	switch {
	case bulls > bears:
		v.Direction = models.Buy
		v.Confidence = 0.6
		if strong {
			v.Confidence = 0.8
		}
	case bears > bulls:
		v.Direction = models.Sell
		v.Confidence = 0.6
		if strong {
			v.Confidence = 0.8
		}
	default:
		v.Confidence = 0.3
	}
	v.Rationale = fmt.Sprintf("Sentiment: %d bullish vs %d bearish mentions across %d headlines",
		bulls, bears, len(mctx.Headlines))
	return v, nil
}

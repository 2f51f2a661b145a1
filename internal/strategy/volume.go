package strategy

import (
	"context"
	"fmt"
	"strings"

	"TradeForge/internal/domain/models"
)

// Volume votes on trading-volume patterns: spikes, volume-price divergence,
// and on-balance volume. High volume confirming a price move is treated as a
// strong trend; volume alone stays neutral.
type Volume struct{}

func NewVolume() *Volume { return &Volume{} }

func (*Volume) Name() string { return "volume" }

type volumeVote struct {
	dir    models.Direction
	conf   float64
	detail string
}

func (s *Volume) Evaluate(_ context.Context, _ string, mctx *models.MarketContext) (models.Vote, error) {
	v := models.Vote{Strategy: s.Name(), Direction: models.Hold}
	if mctx == nil || mctx.Volume <= 0 || !mctx.HasPrice() {
		v.Rationale = "no volume data available"
		return v, nil
	}

	var votes []volumeVote
	if len(mctx.VolumeHistory) >= 20 {
		votes = append(votes, spikeVote(mctx.Volume, mctx.VolumeHistory))
	}
	if len(mctx.VolumeHistory) >= 10 && len(mctx.PriceHistory) >= 10 {
		votes = append(votes, divergenceVote(mctx.Price, mctx.PriceHistory, mctx.VolumeHistory))
	}
	if len(mctx.PriceHistory) >= 5 && len(mctx.VolumeHistory) >= 5 {
		votes = append(votes, obvVote(mctx.PriceHistory, mctx.VolumeHistory))
	}

	if len(votes) == 0 {
		v.Confidence = 0.3
		v.Rationale = "insufficient volume history for analysis"
		return v, nil
	}

	dir, conf := combineVolumeVotes(votes)
	details := make([]string, len(votes))
	for i, vv := range votes {
		details[i] = vv.detail
	}
	v.Direction = dir
	v.Confidence = conf
	v.Rationale = "Volume: " + strings.Join(details, " | ")
	return v, nil
}

func spikeVote(current float64, history []float64) volumeVote {
	avg := mean(history[len(history)-20:])
	ratio := 1.0
	if avg > 0 {
		ratio = current / avg
	}
	// A spike alone has no direction; it needs price context from the other
	// indicators to resolve.
	switch {
	case ratio > 2.0:
		return volumeVote{models.Hold, 0.7, fmt.Sprintf("volume spike %.1fx avg", ratio)}
	case ratio > 1.5:
		return volumeVote{models.Hold, 0.5, fmt.Sprintf("elevated volume %.1fx avg", ratio)}
	default:
		return volumeVote{models.Hold, 0.3, "normal volume"}
	}
}

func divergenceVote(price float64, prices, volumes []float64) volumeVote {
	ref := prices[len(prices)-5]
	if ref == 0 {
		return volumeVote{models.Hold, 0.0, "no price reference"}
	}
	priceChange := (price - ref) / ref * 100
	recentVol := mean(volumes[len(volumes)-5:])
	olderVol := mean(volumes[len(volumes)-10 : len(volumes)-5])

	volUp := recentVol > olderVol*1.2
	volDown := recentVol < olderVol*0.8
	priceUp := priceChange > 2
	priceDown := priceChange < -2

	switch {
	case priceUp && volUp:
		return volumeVote{models.Buy, 0.8, "price up on rising volume (strong bullish)"}
	case priceDown && volUp:
		return volumeVote{models.Sell, 0.8, "price down on rising volume (strong bearish)"}
	case priceUp && volDown:
		return volumeVote{models.Hold, 0.4, "price up on fading volume (weak trend)"}
	case priceDown && volDown:
		return volumeVote{models.Hold, 0.4, "price down on fading volume (weak trend)"}
	default:
		return volumeVote{models.Hold, 0.3, "no clear volume-price pattern"}
	}
}

func obvVote(prices, volumes []float64) volumeVote {
	n := len(prices)
	if len(volumes) < n {
		n = len(volumes)
	}
	obv := make([]float64, 1, n)
	for i := 1; i < n; i++ {
		last := obv[len(obv)-1]
		switch {
		case prices[i] > prices[i-1]:
			obv = append(obv, last+volumes[i])
		case prices[i] < prices[i-1]:
			obv = append(obv, last-volumes[i])
		default:
			obv = append(obv, last)
		}
	}
	if len(obv) < 5 {
		return volumeVote{models.Hold, 0.0, "insufficient OBV data"}
	}
	start := obv[len(obv)-5]
	end := obv[len(obv)-1]
	switch {
	case end > start*1.05:
		return volumeVote{models.Buy, 0.6, "OBV rising (accumulation)"}
	case end < start*0.95:
		return volumeVote{models.Sell, 0.6, "OBV falling (distribution)"}
	default:
		return volumeVote{models.Hold, 0.3, "OBV neutral"}
	}
}

func combineVolumeVotes(votes []volumeVote) (models.Direction, float64) {
	var buyScore, sellScore, holdScore float64
	for _, vv := range votes {
		switch vv.dir {
		case models.Buy:
			buyScore += vv.conf
		case models.Sell:
			sellScore += vv.conf
		default:
			holdScore += vv.conf
		}
	}
	n := float64(len(votes))
	switch {
	case buyScore >= sellScore && buyScore >= holdScore && buyScore > 0:
		return models.Buy, clip1(buyScore / n)
	case sellScore >= holdScore && sellScore > 0:
		return models.Sell, clip1(sellScore / n)
	default:
		return models.Hold, clip1(holdScore / n)
	}
}

package news

import (
	"context"
	"fmt"
	"strings"
	"time"

	"TradeForge/internal/service/ratelimit"
	"TradeForge/internal/symbol"
	xhttp "TradeForge/pkg/http"
	"TradeForge/pkg/logger"
)

// HeadlineSink receives deduplicated headlines for a symbol. The context
// builder implements it.
type HeadlineSink interface {
	AddHeadline(symbol, headline string) error
}

// Client polls a crypto news API and feeds per-symbol headlines into the
// market context. Polling honors a token-bucket limit so config mistakes
// cannot hammer the provider.
type Client struct {
	baseURL  string
	apiKey   string
	symbols  []string // canonical
	interval time.Duration
	http     *xhttp.Client
	limiter  *ratelimit.Limiter
	sink     HeadlineSink
	log      *logger.Logger
}

func New(baseURL, apiKey string, symbols []string, interval time.Duration, sink HeadlineSink, log *logger.Logger) *Client {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		symbols:  symbols,
		interval: interval,
		http:     xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		limiter:  ratelimit.New(),
		sink:     sink,
		log:      log,
	}
}

type newsItem struct {
	Title      string `json:"title"`
	Categories string `json:"categories"`
}

type newsResponse struct {
	Data []newsItem `json:"Data"`
}

// Start polls in the background until the context is cancelled.
func (c *Client) Start(ctx context.Context) {
	if c.baseURL == "" {
		c.log.Info("news polling disabled: no base url configured")
		return
	}
	go func() {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		c.poll(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.poll(ctx)
			}
		}
	}()
}

func (c *Client) poll(ctx context.Context) {
	// 10 requests burst, refilling one per 6s
	if !c.limiter.Allow("news_poll", 10, 1.0/6.0) {
		return
	}
	items, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn("news fetch failed", logger.Error(err))
		return
	}

	matched := 0
	for _, it := range items {
		for _, sym := range c.symbols {
			if !mentions(it, sym) {
				continue
			}
			if err := c.sink.AddHeadline(sym, it.Title); err == nil {
				matched++
			}
		}
	}
	c.log.Debug("news poll complete",
		logger.Int("items", len(items)),
		logger.Int("matched", matched))
}

func (c *Client) fetch(ctx context.Context) ([]newsItem, error) {
	opts := &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL,
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"Authorization": "Apikey " + c.apiKey}
	}
	var resp newsResponse
	if err := c.http.SendAndParse(ctx, opts, &resp); err != nil {
		return nil, fmt.Errorf("fetch news: %w", err)
	}
	return resp.Data, nil
}

// mentions matches an item against a canonical symbol by base ticker or
// category tag.
func mentions(it newsItem, canonical string) bool {
	base := symbol.Base(canonical)
	title := strings.ToUpper(it.Title)
	if strings.Contains(title, base) {
		return true
	}
	for _, cat := range strings.Split(it.Categories, "|") {
		if strings.EqualFold(strings.TrimSpace(cat), base) {
			return true
		}
	}
	return false
}

package web_fetch

import (
	"context"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/firecrawl"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/models"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/static"
)

const (
	DefaultTimeout  = 60 * time.Second
	MaxCharsDefault = 40000
)

// Scraper fetches one URL and returns it as markdown.
type Scraper interface {
	ScrapePage(ctx context.Context, url string) (models.Page, error)
}

type ScraperType string

const (
	FirecrawlScraperType ScraperType = "firecrawl"
	ChromedpScraperType  ScraperType = "chromedp"
	StaticScraperType    ScraperType = "static"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return "web_fetch: " + e.msg }

func NewScraper(cfg config.ScraperConfig) (Scraper, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch ScraperType(cfg.Provider) {
	case FirecrawlScraperType:
		return firecrawl.Scrape{
			ApiKey:   cfg.FirecrawlAPIKey,
			BaseURL:  cfg.FirecrawlBaseURL,
			MaxChars: maxChars,
			Client:   helpers.NewHTTPClient(timeout, 1, time.Second),
		}, nil
	case ChromedpScraperType:
		return chromedp.Fetch{Timeout: timeout, UserAgent: cfg.UserAgent, MaxChars: maxChars}, nil
	case StaticScraperType:
		return static.Fetch{Client: &http.Client{Timeout: timeout}, UserAgent: cfg.UserAgent, MaxChars: maxChars}, nil
	default:
		return nil, &Error{"unsupported scraper type " + cfg.Provider}
	}
}

package firecrawl

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/models"
)

// Scrape calls the Firecrawl v1 scrape endpoint and returns its markdown rendering.
type Scrape struct {
	ApiKey   string
	BaseURL  string
	MaxChars int
	Client   *helpers.HTTPClient
}

type scrapeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		Markdown string `json:"markdown"`
		Metadata struct {
			Title      string `json:"title"`
			StatusCode int    `json:"statusCode"`
		} `json:"metadata"`
	} `json:"data"`
}

func (s Scrape) ScrapePage(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	t0 := time.Now()
	payload := map[string]any{
		"url":             url,
		"formats":         []string{"markdown"},
		"onlyMainContent": false,
	}
	headers := map[string]string{"Authorization": "Bearer " + s.ApiKey}
	var raw scrapeResponse
	if err := s.Client.DoJSON(ctx, http.MethodPost, strings.TrimRight(s.BaseURL, "/")+"/v1/scrape", headers, payload, &raw); err != nil {
		return models.Page{URL: url}, err
	}
	if !raw.Success {
		msg := raw.Error
		if msg == "" {
			msg = "scrape unsuccessful"
		}
		return models.Page{URL: url}, errors.New("firecrawl: " + msg)
	}
	md := strings.TrimSpace(raw.Data.Markdown)
	if md == "" {
		return models.Page{URL: url}, errors.New("firecrawl: empty markdown")
	}
	if s.MaxChars > 0 && utf8.RuneCountInString(md) > s.MaxChars {
		md = string([]rune(md)[:s.MaxChars])
	}
	status := raw.Data.Metadata.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	return models.Page{
		URL:      url,
		Title:    helpers.SanitizeHTMLStrict(raw.Data.Metadata.Title),
		Markdown: md,
		Status:   status,
		RenderMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

package static

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/models"
)

const maxBodyBytes = 8 << 20

// Fetch downloads a page with a plain GET and converts it without running scripts.
type Fetch struct {
	Client    *http.Client
	UserAgent string
	MaxChars  int
}

func (f Fetch) ScrapePage(ctx context.Context, rawURL string) (models.Page, error) {
	if strings.TrimSpace(rawURL) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.Page{}, err
	}
	t0 := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Page{}, err
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Page{URL: rawURL}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Page{URL: rawURL, Status: resp.StatusCode}, fmt.Errorf("fetch %s: %s", rawURL, resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Page{URL: rawURL, Status: resp.StatusCode}, err
	}
	text, err := helpers.HTMLToMarkdown(string(body), u, f.MaxChars)
	if err != nil {
		return models.Page{URL: rawURL, Status: resp.StatusCode}, err
	}
	return models.Page{
		URL:      rawURL,
		Title:    text.Title,
		Markdown: text.Markdown,
		Status:   resp.StatusCode,
		RenderMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

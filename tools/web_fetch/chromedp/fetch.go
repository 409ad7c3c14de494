package chromedp

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch/models"
)

// Fetch renders the page in headless Chrome before converting it, for shops that
// build their listings client side.
type Fetch struct {
	Timeout   time.Duration
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

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	html, err := fetchHTML(ctx, rawURL, f.UserAgent)
	if err != nil {
		return models.Page{URL: rawURL, Status: 599, RenderMS: int(time.Since(t0) / time.Millisecond)}, err
	}
	text, err := helpers.HTMLToMarkdown(html, u, f.MaxChars)
	if err != nil {
		return models.Page{URL: rawURL, Status: 200}, err
	}
	return models.Page{
		URL:      rawURL,
		Title:    text.Title,
		Markdown: text.Markdown,
		Status:   200,
		RenderMS: int(time.Since(t0) / time.Millisecond),
	}, nil
}

func fetchHTML(ctx context.Context, rawURL, userAgent string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

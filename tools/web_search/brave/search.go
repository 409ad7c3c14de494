package brave

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/models"
)

const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	K        int
	Client   *helpers.HTTPClient
}

func (s Search) Search(ctx context.Context, q string) (string, error) {
	results, err := s.Discover(ctx, q)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", errors.New("brave: no results")
	}
	return models.Render(results), nil
}

// Discover returns web results for q. https://api.search.brave.com/app/documentation/web-search
func (s Search) Discover(ctx context.Context, q string) ([]models.Result, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	params := url.Values{}
	params.Set("q", q)
	if s.K > 0 {
		params.Set("count", strconv.Itoa(s.K))
	}
	params.Set("search_lang", "nl")
	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	headers := map[string]string{"Accept": "application/json", "X-Subscription-Token": s.ApiKey}
	if err := s.Client.DoJSON(ctx, http.MethodGet, endpoint+"?"+params.Encode(), headers, nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, r := range raw.Web.Results {
		if s.K > 0 && i >= s.K {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}

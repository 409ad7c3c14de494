package serper

import (
	"context"
	"errors"
	"net/http"

	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/models"
)

const DefaultEndpoint = "https://google.serper.dev/search"

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
		return "", errors.New("serper: no results")
	}
	return models.Render(results), nil
}

// Discover returns the organic results for q. https://serper.dev/ docs
func (s Search) Discover(ctx context.Context, q string) ([]models.Result, error) {
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	payload := map[string]any{"q": q, "num": s.K, "gl": "nl", "hl": "nl"}
	if err := s.Client.DoJSON(ctx, http.MethodPost, endpoint, map[string]string{"X-API-KEY": s.ApiKey}, payload, &raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, it := range raw.Organic {
		if s.K > 0 && i >= s.K {
			break
		}
		out = append(out, models.Result{Title: it.Title, URL: it.Link, Snippet: it.Snippet})
	}
	return out, nil
}

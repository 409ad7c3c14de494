package web_search

import (
	"context"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/brave"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/gemini"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/serper"
)

// Searcher executes a free-text query and returns a prompt-ready rendering of what it found.
type Searcher interface {
	Search(ctx context.Context, q string) (string, error)
}

type Provider string

const (
	GeminiProvider Provider = "gemini"
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = &Error{"unsupported provider"}

type Error struct {
	msg string
}

func (e *Error) Error() string { return "web_search: " + e.msg }

func NewSearcher(ctx context.Context, cfg config.SearchConfig) (Searcher, error) {
	client := helpers.NewHTTPClient(cfg.Timeout, 2, 500*time.Millisecond)
	switch Provider(cfg.Provider) {
	case GeminiProvider:
		return gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	case SerperProvider:
		return serper.Search{ApiKey: cfg.SerperAPIKey, K: cfg.MaxResults, Client: client}, nil
	case BraveProvider:
		return brave.Search{ApiKey: cfg.BraveAPIKey, K: cfg.MaxResults, Client: client}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

package pipeline

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
	fetchmodels "github.com/mohammad-safakhou/contentagent/tools/web_fetch/models"
)

var testModels = config.LLMModels{
	Draft:       "draft-model",
	StoreList:   "store-model",
	Summary:     "summary-model",
	SearchQuery: "search-model",
	Segment:     "segment-model",
	Recompose:   "recompose-model",
	Validation:  "validation-model",
}

func discardLogger() *log.Logger { return log.New(io.Discard, "", 0) }

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []provider.CompletionRequest
	respond func(ctx context.Context, req provider.CompletionRequest) (string, error)
}

func (g *fakeGenerator) Complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, req)
	g.mu.Unlock()
	if g.respond == nil {
		return "", errors.New("no responder")
	}
	return g.respond(ctx, req)
}

func (g *fakeGenerator) callsFor(model string) []provider.CompletionRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []provider.CompletionRequest
	for _, c := range g.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	err   func(text string) error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()
	if e.err != nil {
		if err := e.err(text); err != nil {
			return nil, err
		}
	}
	return []float32{float32(len(text)), 1}, nil
}

type savedArticle struct {
	orgID  string
	itemID int64
	text   string
	format models.OutputFormat
}

type fakeStore struct {
	mu        sync.Mutex
	pref      *models.OrgPreference
	access    *models.OrgModuleAccess
	accessErr error
	nearest   func(accessID int64, vec []float32, k int) ([]models.ImageAsset, error)
	saved     []savedArticle
	saveErr   error
}

func (s *fakeStore) GetOrgModuleAccess(_ context.Context, orgID string, moduleID int64) (models.OrgModuleAccess, error) {
	if s.accessErr != nil {
		return models.OrgModuleAccess{}, s.accessErr
	}
	if s.access == nil {
		return models.OrgModuleAccess{}, models.ErrNotFound
	}
	return *s.access, nil
}

func (s *fakeStore) NearestImages(_ context.Context, accessID int64, vec []float32, k int) ([]models.ImageAsset, error) {
	if s.nearest == nil {
		return nil, nil
	}
	return s.nearest(accessID, vec, k)
}

func (s *fakeStore) GetOrgPreference(_ context.Context, orgID string) (models.OrgPreference, error) {
	if s.pref == nil {
		return models.OrgPreference{}, models.ErrNotFound
	}
	return *s.pref, nil
}

func (s *fakeStore) SaveArticle(_ context.Context, orgID string, itemID int64, text string, format models.OutputFormat) (models.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return models.Article{}, s.saveErr
	}
	s.saved = append(s.saved, savedArticle{orgID: orgID, itemID: itemID, text: text, format: format})
	return models.Article{
		ID:            int64(len(s.saved)),
		OrgID:         orgID,
		ContentItemID: itemID,
		Text:          text,
		OutputFormat:  format.Normalize(),
		Status:        models.StatusPublished,
		PagePath:      models.Slug("Test", itemID),
		CreatedAt:     time.Unix(0, 0),
	}, nil
}

type fakeScraper struct {
	mu    sync.Mutex
	pages map[string]string
	calls []string
	at    []time.Time
}

func (s *fakeScraper) ScrapePage(_ context.Context, url string) (fetchmodels.Page, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.at = append(s.at, time.Now())
	s.mu.Unlock()
	md, ok := s.pages[url]
	if !ok {
		return fetchmodels.Page{}, errors.New("404 not found")
	}
	return fetchmodels.Page{URL: url, Markdown: md, Status: 200}, nil
}

type fakeSearcher struct {
	queries []string
	result  string
	err     error
}

func (s *fakeSearcher) Search(_ context.Context, q string) (string, error) {
	s.queries = append(s.queries, q)
	return s.result, s.err
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

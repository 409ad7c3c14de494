package pipeline

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
)

// AssetMatcher finds library images for each paragraph of a draft.
type AssetMatcher struct {
	gen         provider.Generator
	embedder    provider.Embedder
	store       AssetStore
	model       string
	topK        int
	concurrency int
	metrics     *pipelineMetrics
	logger      *log.Logger
}

func NewAssetMatcher(gen provider.Generator, emb provider.Embedder, st AssetStore, model string, topK, concurrency int, metrics *pipelineMetrics, logger *log.Logger) *AssetMatcher {
	if topK <= 0 {
		topK = 2
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &AssetMatcher{gen: gen, embedder: emb, store: st, model: model, topK: topK, concurrency: concurrency, metrics: metrics, logger: logger}
}

// Match segments the draft into paragraph image descriptions and looks up the nearest
// assets for each one within the organization's module scope. A segmentation or scope
// failure aborts the match; an embed or search failure is recorded on its entry only.
func (m *AssetMatcher) Match(ctx context.Context, draft string, module models.Module, orgID string) ([]models.ParagraphImageQuery, error) {
	raw, err := m.gen.Complete(ctx, provider.CompletionRequest{Model: m.model, Prompt: segmentPrompt(draft), JSON: true})
	if err != nil {
		return nil, fmt.Errorf("segment draft: %w", err)
	}
	var resp struct {
		Paragraphs []models.ParagraphImageQuery `json:"paragraphs"`
	}
	if err := decodeContract(paragraphsContract, raw, &resp); err != nil {
		return nil, fmt.Errorf("segment draft: %w", err)
	}

	access, err := m.store.GetOrgModuleAccess(ctx, orgID, module.ID)
	if err != nil {
		return nil, fmt.Errorf("resolve asset scope for org=%s module=%d: %w", orgID, module.ID, err)
	}

	queries := resp.Paragraphs
	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i := range queries {
		q := &queries[i]
		g.Go(func() error {
			m.resolve(ctx, access.ID, q)
			return nil
		})
	}
	_ = g.Wait()
	return queries, nil
}

func (m *AssetMatcher) resolve(ctx context.Context, accessID int64, q *models.ParagraphImageQuery) {
	vec, err := m.embedder.Embed(ctx, q.Description)
	if err != nil {
		q.Err = fmt.Errorf("embed description: %w", err)
		m.logger.Printf("warn: asset match embed failed: %v", err)
		m.metrics.assetFailed(ctx, "embed")
		return
	}
	q.Embedding = vec
	assets, err := m.store.NearestImages(ctx, accessID, vec, m.topK)
	if err != nil {
		q.Err = fmt.Errorf("search assets: %w", err)
		m.logger.Printf("warn: asset match search failed: %v", err)
		m.metrics.assetFailed(ctx, "search")
		return
	}
	q.Assets = assets
}

// AssetURLs flattens the matched assets into public URLs, keeping first-seen order and
// dropping duplicates. Entries that failed contribute nothing.
func AssetURLs(queries []models.ParagraphImageQuery, publicBaseURL string) []string {
	seen := make(map[string]struct{})
	var urls []string
	for _, q := range queries {
		if q.Err != nil {
			continue
		}
		for _, a := range q.Assets {
			if a.UniqueFilename == "" {
				continue
			}
			u := publicBaseURL + "/" + a.UniqueFilename
			if _, dup := seen[u]; dup {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	return urls
}

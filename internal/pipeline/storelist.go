package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
)

// MaxStoreLinks caps how many links the filter hands to the scraper.
const MaxStoreLinks = 50

// StoreListFilter asks the generator which candidate stores are relevant to a topic.
type StoreListFilter struct {
	gen     provider.Generator
	model   string
	timeout time.Duration
	limit   int
	policy  config.ScrapePolicyConfig
	logger  *log.Logger
}

func NewStoreListFilter(gen provider.Generator, model string, timeout time.Duration, limit int, policy config.ScrapePolicyConfig, logger *log.Logger) *StoreListFilter {
	if limit <= 0 || limit > MaxStoreLinks {
		limit = MaxStoreLinks
	}
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &StoreListFilter{gen: gen, model: model, timeout: timeout, limit: limit, policy: policy, logger: logger}
}

// Filter returns at most limit deduplicated links that the scrape policy permits.
func (f *StoreListFilter) Filter(ctx context.Context, topicTitle, candidateText string) ([]models.StoreLink, error) {
	req := provider.CompletionRequest{
		Model:  f.model,
		Prompt: storeListPrompt(topicTitle, candidateText, f.limit),
		JSON:   true,
	}
	raw, err := f.complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("store list: %w", err)
	}
	var resp struct {
		Stores []map[string]string `json:"stores"`
	}
	if err := decodeContract(storeListContract, raw, &resp); err != nil {
		return nil, fmt.Errorf("store list: %w", err)
	}

	seen := make(map[string]struct{})
	out := make([]models.StoreLink, 0, len(resp.Stores))
	var dropped int
	for _, entry := range resp.Stores {
		names := make([]string, 0, len(entry))
		for name := range entry {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if len(out) >= f.limit {
				break
			}
			canonical, err := helpers.CanonicalURL(entry[name])
			if err != nil || !f.policy.Permits(canonical) {
				dropped++
				continue
			}
			if _, dup := seen[canonical]; dup {
				dropped++
				continue
			}
			seen[canonical] = struct{}{}
			out = append(out, models.StoreLink{Name: helpers.SanitizeHTMLStrict(name), URL: canonical})
		}
	}
	if dropped > 0 {
		f.logger.Printf("store list: dropped %d invalid, duplicate or disallowed links", dropped)
	}
	return out, nil
}

// complete bounds the first attempt with the filter timeout. When that attempt times
// out while the caller is still waiting, it retries exactly once bounded only by ctx.
func (f *StoreListFilter) complete(ctx context.Context, req provider.CompletionRequest) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.timeout)
	raw, err := f.gen.Complete(attemptCtx, req)
	timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
	cancel()
	if err == nil {
		return raw, nil
	}
	if (timedOut || errors.Is(err, context.DeadlineExceeded)) && ctx.Err() == nil {
		f.logger.Printf("warn: store list generation timed out after %s, retrying once", f.timeout)
		return f.gen.Complete(ctx, req)
	}
	return "", err
}

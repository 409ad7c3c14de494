package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
)

// Summarizer condenses scraped pages into short, form-relevant summaries.
type Summarizer struct {
	gen    provider.Generator
	store  AccessStore
	model  string
	logger *log.Logger
}

func NewSummarizer(gen provider.Generator, st AccessStore, model string, logger *log.Logger) *Summarizer {
	return &Summarizer{gen: gen, store: st, model: model, logger: logger}
}

// Summarize returns one entry per input page, in input order. Pages that arrive with an
// error pass through untouched; a page whose summary fails gets an error marker and the
// rest are unaffected.
func (s *Summarizer) Summarize(ctx context.Context, pages []models.ScrapedPage, fd models.FormData, orgID string, module models.Module) []models.SummarizedPage {
	out := make([]models.SummarizedPage, len(pages))
	if len(pages) == 0 {
		return out
	}

	base := DefaultSummaryPrompt
	access, err := s.store.GetOrgModuleAccess(ctx, orgID, module.ID)
	switch {
	case err == nil && strings.TrimSpace(access.SummaryPrompt) != "":
		base = access.SummaryPrompt
	case err != nil && !errors.Is(err, models.ErrNotFound):
		s.logger.Printf("warn: summary prompt lookup for org=%s module=%d failed, using default: %v", orgID, module.ID, err)
	}

	for i, page := range pages {
		if page.Failed() {
			out[i] = models.SummarizedPage{ScrapedPage: page}
			continue
		}
		summary, err := s.summarizePage(ctx, base, fd, page)
		if err != nil {
			s.logger.Printf("warn: summarize %s (%s): %v", page.Name, page.URL, err)
			out[i] = models.SummarizedPage{ScrapedPage: models.FailedPage(page.Name, page.URL, fmt.Errorf("failed to process: %w", err))}
			continue
		}
		out[i] = models.SummarizedPage{ScrapedPage: page, Summary: summary}
	}
	return out
}

func (s *Summarizer) summarizePage(ctx context.Context, base string, fd models.FormData, page models.ScrapedPage) (string, error) {
	raw, err := s.gen.Complete(ctx, provider.CompletionRequest{
		Model:  s.model,
		Prompt: summaryPrompt(base, fd, page.Content),
		JSON:   true,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		Information string `json:"information"`
	}
	if err := decodeContract(informationContract, raw, &resp); err != nil {
		return "", err
	}
	summary := strings.TrimSpace(resp.Information)
	if summary == "" {
		return "", errors.New("no summary found")
	}
	return summary, nil
}

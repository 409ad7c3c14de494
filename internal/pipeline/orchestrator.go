package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch"
	"github.com/mohammad-safakhou/contentagent/tools/web_search"
)

// Deps wires the collaborators of a content run.
type Deps struct {
	Generator provider.Generator
	Embedder  provider.Embedder
	Scraper   web_fetch.Scraper
	Searcher  web_search.Searcher
	Store     Store

	Models   config.LLMModels
	Pipeline config.PipelineConfig
	Scraping config.ScraperConfig
	Assets   config.AssetsConfig

	Logger *log.Logger
	Meter  otelmetric.Meter
	Tracer trace.Tracer
	Now    func() time.Time
}

// Orchestrator executes one content run as a fixed sequence of stages.
type Orchestrator struct {
	deps       Deps
	logger     *log.Logger
	tracer     trace.Tracer
	metrics    *pipelineMetrics
	filter     *StoreListFilter
	summarizer *Summarizer
	matcher    *AssetMatcher
}

func NewOrchestrator(d Deps) (*Orchestrator, error) {
	if d.Generator == nil || d.Store == nil {
		return nil, errors.New("pipeline: generator and store are required")
	}
	if d.Logger == nil {
		d.Logger = log.New(os.Stdout, "[PIPELINE] ", log.LstdFlags)
	}
	if d.Tracer == nil {
		d.Tracer = otel.Tracer("contentagent/pipeline")
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	d.Pipeline = d.Pipeline.Normalize()
	if d.Scraping.Delay <= 0 {
		d.Scraping.Delay = config.DefaultScrapeDelay
	}
	metrics := newPipelineMetrics(d.Meter, d.Logger)
	o := &Orchestrator{
		deps:       d,
		logger:     d.Logger,
		tracer:     d.Tracer,
		metrics:    metrics,
		filter:     NewStoreListFilter(d.Generator, d.Models.StoreList, d.Pipeline.StoreListTimeout, d.Pipeline.StoreListLimit, d.Scraping.Policy, d.Logger),
		summarizer: NewSummarizer(d.Generator, d.Store, d.Models.Summary, d.Logger),
	}
	if d.Embedder != nil {
		o.matcher = NewAssetMatcher(d.Generator, d.Embedder, d.Store, d.Models.Segment, d.Pipeline.AssetTopK, d.Pipeline.EmbedConcurrency, metrics, d.Logger)
	}
	return o, nil
}

type runState struct {
	orgID          string
	itemID         int64
	formData       models.FormData
	module         models.Module
	internetSearch string
	context        []models.SummarizedPage
	draft          string
	final          string
	article        models.Article
}

// Run generates, optionally illustrates, and persists one article. The first failing
// stage aborts the run; the content item is then left in writing for the sweep.
func (o *Orchestrator) Run(ctx context.Context, orgID string, formData models.FormData, contentItemID int64, module models.Module) (models.Article, error) {
	st := &runState{orgID: orgID, itemID: contentItemID, formData: formData, module: module}
	stages := SelectStages(module)
	o.logger.Printf("item=%d module=%d stages=%v", contentItemID, module.ID, stages)

	for _, stage := range stages {
		start := time.Now()
		stageCtx, span := o.tracer.Start(ctx, "pipeline."+string(stage))
		err := o.runStage(stageCtx, stage, st)
		span.End()
		elapsed := time.Since(start)
		o.metrics.recordStage(ctx, stage, elapsed, err)
		if err != nil {
			o.logger.Printf("warn: item=%d stage=%s failed after %s: %v", contentItemID, stage, elapsed.Round(time.Millisecond), err)
			return models.Article{}, &StageError{Stage: stage, Err: err}
		}
		o.logger.Printf("item=%d stage=%s done in %s", contentItemID, stage, elapsed.Round(time.Millisecond))
	}
	return st.article, nil
}

func (o *Orchestrator) runStage(ctx context.Context, stage Stage, st *runState) error {
	switch stage {
	case StageInternetSearch:
		return o.internetSearch(ctx, st)
	case StageResearch:
		return o.research(ctx, st)
	case StageDraft:
		return o.draft(ctx, st)
	case StageAssets:
		return o.assets(ctx, st)
	case StagePersist:
		return o.persist(ctx, st)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
}

func (o *Orchestrator) internetSearch(ctx context.Context, st *runState) error {
	if o.deps.Searcher == nil {
		return errors.New("no search provider configured")
	}
	query, err := o.deps.Generator.Complete(ctx, provider.CompletionRequest{
		Model:  o.deps.Models.SearchQuery,
		Prompt: searchIntentPrompt(o.deps.Now(), st.formData),
	})
	if err != nil {
		return fmt.Errorf("search query: %w", err)
	}
	result, err := o.deps.Searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	st.internetSearch = result
	return nil
}

func (o *Orchestrator) research(ctx context.Context, st *runState) error {
	if o.deps.Scraper == nil {
		return errors.New("no scraper configured")
	}
	sources := splitSources(st.module.ScraperSources)
	if len(sources) == 0 {
		return errors.New("module has no scraper source")
	}

	limiter := newScrapeLimiter(o.deps.Scraping.Delay)
	var baseline []string
	var lastErr error
	for _, src := range sources {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		page, err := o.deps.Scraper.ScrapePage(ctx, src)
		if err != nil {
			lastErr = err
			o.logger.Printf("warn: scrape source %s: %v", src, err)
			continue
		}
		baseline = append(baseline, page.Markdown)
	}
	if len(baseline) == 0 {
		return fmt.Errorf("scrape sources: %w", lastErr)
	}

	links, err := o.filter.Filter(ctx, st.formData.Title(), strings.Join(baseline, "\n\n"))
	if err != nil {
		return err
	}
	o.logger.Printf("item=%d store list selected %d links", st.itemID, len(links))

	pages := o.scrapeBatch(ctx, limiter, links)
	st.context = o.summarizer.Summarize(ctx, pages, st.formData, st.orgID, st.module)
	return nil
}

// scrapeBatch scrapes links one at a time, spaced by the limiter. A failing link
// becomes an error-marked page and never aborts the batch.
func (o *Orchestrator) scrapeBatch(ctx context.Context, limiter *rate.Limiter, links []models.StoreLink) []models.ScrapedPage {
	pages := make([]models.ScrapedPage, 0, len(links))
	for _, l := range links {
		if err := limiter.Wait(ctx); err != nil {
			pages = append(pages, models.FailedPage(l.Name, l.URL, err))
			o.metrics.scrapeFailed(ctx)
			continue
		}
		page, err := o.deps.Scraper.ScrapePage(ctx, l.URL)
		if err == nil && strings.TrimSpace(page.Markdown) == "" {
			err = errors.New("empty page")
		}
		if err != nil {
			o.logger.Printf("warn: scrape %s (%s): %v", l.Name, l.URL, err)
			pages = append(pages, models.FailedPage(l.Name, l.URL, err))
			o.metrics.scrapeFailed(ctx)
			continue
		}
		pages = append(pages, models.NewScrapedPage(l.Name, l.URL, page.Markdown))
	}
	return pages
}

func (o *Orchestrator) draft(ctx context.Context, st *runState) error {
	pref, err := o.deps.Store.GetOrgPreference(ctx, st.orgID)
	if err != nil {
		return fmt.Errorf("org preference: %w", err)
	}
	var accessPrompt string
	access, err := o.deps.Store.GetOrgModuleAccess(ctx, st.orgID, st.module.ID)
	switch {
	case err == nil:
		accessPrompt = access.Prompt
	case !errors.Is(err, models.ErrNotFound):
		return fmt.Errorf("org module access: %w", err)
	}

	purpose := st.module.Purpose
	if strings.TrimSpace(purpose) == "" {
		purpose = o.deps.Pipeline.DefaultPurpose
	}
	prompt := draftPrompt(draftInput{
		Title:          st.formData.Title(),
		FormData:       st.formData,
		PromptTemplate: st.module.PromptTemplate,
		OrgPrompt:      pref.OrganizationPrompt,
		AccessPrompt:   accessPrompt,
		Format:         st.module.OutputFormat,
		Context:        st.context,
		InternetSearch: st.internetSearch,
		Purpose:        purpose,
	})
	draft, err := o.deps.Generator.Complete(ctx, provider.CompletionRequest{Model: o.deps.Models.Draft, Prompt: prompt})
	if err != nil {
		return fmt.Errorf("generate draft: %w", err)
	}
	if strings.TrimSpace(draft) == "" {
		return errors.New("generate draft: empty draft")
	}
	st.draft = draft
	st.final = draft
	return nil
}

func (o *Orchestrator) assets(ctx context.Context, st *runState) error {
	if o.matcher == nil {
		return errors.New("no embedder configured")
	}
	queries, err := o.matcher.Match(ctx, st.draft, st.module, st.orgID)
	if err != nil {
		return err
	}
	urls := AssetURLs(queries, o.deps.Assets.PublicBaseURL)
	if len(urls) == 0 {
		o.logger.Printf("item=%d no assets matched, recomposing without images", st.itemID)
	}
	final, err := o.deps.Generator.Complete(ctx, provider.CompletionRequest{
		Model:  o.deps.Models.Recompose,
		Prompt: recomposePrompt(st.module.OutputFormat, st.draft, urls),
	})
	if err != nil {
		return fmt.Errorf("recompose with assets: %w", err)
	}
	if strings.TrimSpace(final) == "" {
		return errors.New("recompose with assets: empty article")
	}
	st.final = final
	return nil
}

func (o *Orchestrator) persist(ctx context.Context, st *runState) error {
	art, err := o.deps.Store.SaveArticle(ctx, st.orgID, st.itemID, st.final, st.module.OutputFormat)
	if err != nil {
		return fmt.Errorf("save article: %w", err)
	}
	st.article = art
	return nil
}

func newScrapeLimiter(delay time.Duration) *rate.Limiter {
	return rate.NewLimiter(rate.Every(delay), 1)
}

func splitSources(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == ' ' || r == '\t' || r == '\r'
	})
}

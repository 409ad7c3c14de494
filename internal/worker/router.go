package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/mohammad-safakhou/contentagent/models"
)

// ContentRequest is one request to generate content for an organization's module.
type ContentRequest struct {
	OrgID    string
	ModuleID int64
	FormData models.FormData
}

// RouterStore is the persistence the router needs before handing off to a pipeline.
type RouterStore interface {
	GetModuleForOrg(ctx context.Context, orgID string, moduleID int64) (models.Module, error)
	CreateContentItem(ctx context.Context, orgID string, moduleID int64, formData models.FormData) (models.ContentItem, error)
}

// Runner executes the content pipeline for a created item.
type Runner interface {
	Run(ctx context.Context, orgID string, formData models.FormData, contentItemID int64, module models.Module) (models.Article, error)
}

// Outcome carries what a routed request produced. ContentItemID is set as soon as the
// item exists, also when the run afterwards fails.
type Outcome struct {
	ContentItemID int64
	Module        models.Module
	Article       models.Article
}

// Router resolves a request's module, creates its content item and picks the pipeline.
type Router struct {
	store  RouterStore
	runner Runner
	logger *log.Logger
}

func NewRouter(st RouterStore, runner Runner, logger *log.Logger) *Router {
	return &Router{store: st, runner: runner, logger: logger}
}

func (r *Router) Route(ctx context.Context, req ContentRequest) (Outcome, error) {
	module, err := r.store.GetModuleForOrg(ctx, req.OrgID, req.ModuleID)
	if err != nil {
		return Outcome{}, fmt.Errorf("load module %d for org %s: %w", req.ModuleID, req.OrgID, err)
	}
	if err := req.FormData.Validate(); err != nil {
		return Outcome{Module: module}, err
	}

	item, err := r.store.CreateContentItem(ctx, req.OrgID, module.ID, req.FormData)
	if err != nil {
		return Outcome{Module: module}, fmt.Errorf("create content item: %w", err)
	}
	out := Outcome{ContentItemID: item.ID, Module: module}

	if module.Translation {
		r.logger.Printf("warn: item=%d module=%d is a translation module, leaving it for the sweep", item.ID, module.ID)
		return out, models.ErrTranslationUnsupported
	}

	r.logger.Printf("item=%d org=%s module=%s routed to content pipeline", item.ID, req.OrgID, module.Slug)
	art, err := r.runner.Run(ctx, req.OrgID, req.FormData, item.ID, module)
	if err != nil {
		return out, err
	}
	out.Article = art
	return out, nil
}

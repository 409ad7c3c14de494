package pipeline

import (
	"context"

	"github.com/mohammad-safakhou/contentagent/models"
)

// AccessStore resolves the org/module access row.
type AccessStore interface {
	GetOrgModuleAccess(ctx context.Context, orgID string, moduleID int64) (models.OrgModuleAccess, error)
}

// AssetStore is what the asset matcher needs from persistence.
type AssetStore interface {
	AccessStore
	NearestImages(ctx context.Context, accessID int64, vec []float32, k int) ([]models.ImageAsset, error)
}

// Store is the persistence surface used by a content run.
type Store interface {
	AssetStore
	GetOrgPreference(ctx context.Context, orgID string) (models.OrgPreference, error)
	SaveArticle(ctx context.Context, orgID string, contentItemID int64, text string, format models.OutputFormat) (models.Article, error)
}

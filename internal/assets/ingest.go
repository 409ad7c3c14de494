package assets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/mohammad-safakhou/contentagent/models"
	"github.com/mohammad-safakhou/contentagent/provider"
)

// NoDescription replaces descriptions the vision model could not produce.
const NoDescription = "No description generated"

const describePrompt = "You are an expert at describing images. Please describe the image in as much detail as possible. These descriptions will be used to find similar images for the user via a vector search."

// ImageUpload is an object already stored in the public bucket.
type ImageUpload struct {
	Filename       string `json:"filename"`
	UniqueFilename string `json:"unique_filename"`
	ContentType    string `json:"content_type"`
}

// Result reports the outcome for one upload.
type Result struct {
	Upload ImageUpload
	Asset  models.ImageAsset
	Err    error
}

type ImageStore interface {
	InsertImage(ctx context.Context, img models.ImageAsset) (models.ImageAsset, error)
}

// Ingestor describes, embeds and stores images so the asset matcher can find them.
type Ingestor struct {
	describer     provider.ImageDescriber
	embedder      provider.Embedder
	store         ImageStore
	publicBaseURL string
	logger        *log.Logger
}

func NewIngestor(describer provider.ImageDescriber, embedder provider.Embedder, st ImageStore, publicBaseURL string, logger *log.Logger) *Ingestor {
	if logger == nil {
		logger = log.New(os.Stdout, "[INGEST] ", log.LstdFlags)
	}
	return &Ingestor{
		describer:     describer,
		embedder:      embedder,
		store:         st,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

// Ingest processes uploads in order. A failure affects only its own image.
func (in *Ingestor) Ingest(ctx context.Context, accessID int64, uploads []ImageUpload) []Result {
	results := make([]Result, 0, len(uploads))
	for _, up := range uploads {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{Upload: up, Err: err})
			continue
		}
		asset, err := in.ingestOne(ctx, accessID, up)
		if err != nil {
			in.logger.Printf("warn: ingest %s: %v", up.UniqueFilename, err)
		}
		results = append(results, Result{Upload: up, Asset: asset, Err: err})
	}
	return results
}

func (in *Ingestor) ingestOne(ctx context.Context, accessID int64, up ImageUpload) (models.ImageAsset, error) {
	if strings.TrimSpace(up.UniqueFilename) == "" {
		return models.ImageAsset{}, errors.New("unique filename is required")
	}
	desc := in.describe(ctx, up)
	vec, err := in.embedder.Embed(ctx, desc)
	if err != nil {
		return models.ImageAsset{}, fmt.Errorf("embed description: %w", err)
	}
	asset, err := in.store.InsertImage(ctx, models.ImageAsset{
		AccessID:       accessID,
		Filename:       up.Filename,
		UniqueFilename: up.UniqueFilename,
		Description:    desc,
		ContentType:    up.ContentType,
		Embedding:      vec,
	})
	if err != nil {
		return models.ImageAsset{}, fmt.Errorf("insert image: %w", err)
	}
	return asset, nil
}

func (in *Ingestor) describe(ctx context.Context, up ImageUpload) string {
	desc, err := in.describer.DescribeImage(ctx, in.publicBaseURL+"/"+up.UniqueFilename, describePrompt)
	if err != nil {
		in.logger.Printf("warn: describe %s: %v", up.UniqueFilename, err)
		return NoDescription
	}
	if desc = strings.TrimSpace(desc); desc == "" {
		return NoDescription
	}
	return desc
}

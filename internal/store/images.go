package store

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/contentagent/models"
)

// InsertImage stores an asset together with its description embedding.
func (s *Store) InsertImage(ctx context.Context, img models.ImageAsset) (models.ImageAsset, error) {
	if img.AccessID == 0 || img.UniqueFilename == "" {
		return models.ImageAsset{}, fmt.Errorf("access id and unique filename are required")
	}
	if len(img.Embedding) != EmbeddingDimensions {
		return models.ImageAsset{}, fmt.Errorf("embedding has %d dimensions, want %d", len(img.Embedding), EmbeddingDimensions)
	}
	vec, err := encodeVectorLiteral(img.Embedding)
	if err != nil {
		return models.ImageAsset{}, err
	}
	err = s.DB.QueryRowContext(ctx, `
INSERT INTO images (org_module_access_id, filename, unique_filename, description, content_type, embedding)
VALUES ($1,$2,$3,$4,$5,$6::vector)
RETURNING id, created_at`, img.AccessID, img.Filename, img.UniqueFilename, img.Description, img.ContentType, vec).
		Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return models.ImageAsset{}, fmt.Errorf("insert image: %w", err)
	}
	return img, nil
}

// NearestImages returns the k assets in the access scope whose embeddings are closest
// to vec by cosine distance, nearest first.
func (s *Store) NearestImages(ctx context.Context, accessID int64, vec []float32, k int) ([]models.ImageAsset, error) {
	if k <= 0 {
		k = 2
	}
	lit, err := encodeVectorLiteral(vec)
	if err != nil {
		return nil, err
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, org_module_access_id, filename, unique_filename, description, content_type, created_at,
       embedding <=> $1::vector AS distance
FROM images
WHERE org_module_access_id = $2 AND embedding IS NOT NULL
ORDER BY embedding <=> $1::vector
LIMIT $3`, lit, accessID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.ImageAsset
	for rows.Next() {
		var img models.ImageAsset
		if err := rows.Scan(&img.ID, &img.AccessID, &img.Filename, &img.UniqueFilename, &img.Description,
			&img.ContentType, &img.CreatedAt, &img.Distance); err != nil {
			return nil, err
		}
		out = append(out, img)
	}
	return out, rows.Err()
}

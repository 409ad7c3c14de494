package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/contentagent/models"
)

func TestNearestImagesOrdersByDistance(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY embedding <=> $1::vector`)).
		WithArgs("[0.5,0.25]", int64(9), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "org_module_access_id", "filename", "unique_filename", "description", "content_type", "created_at", "distance"}).
			AddRow(int64(1), int64(9), "tulp.jpg", "a1-tulp.jpg", "rode tulpen", "image/jpeg", now, 0.12).
			AddRow(int64(2), int64(9), "veld.jpg", "b2-veld.jpg", "bollenveld", "image/jpeg", now, 0.31))

	imgs, err := st.NearestImages(context.Background(), 9, []float32{0.5, 0.25}, 2)
	if err != nil {
		t.Fatalf("NearestImages: %v", err)
	}
	if len(imgs) != 2 || imgs[0].UniqueFilename != "a1-tulp.jpg" || imgs[0].Distance != 0.12 {
		t.Fatalf("unexpected images %+v", imgs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestNearestImagesRequiresVector(t *testing.T) {
	st := &Store{}
	if _, err := st.NearestImages(context.Background(), 9, nil, 2); err == nil {
		t.Fatalf("expected error for empty vector")
	}
}

func TestInsertImageValidatesDimensions(t *testing.T) {
	st := &Store{}
	_, err := st.InsertImage(context.Background(), models.ImageAsset{AccessID: 1, UniqueFilename: "x.png", Embedding: []float32{1, 2}})
	if err == nil {
		t.Fatalf("expected dimension error")
	}
}

func TestInsertImage(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	vec := make([]float32, EmbeddingDimensions)
	vec[0] = 1
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO images (org_module_access_id, filename, unique_filename, description, content_type, embedding)`)).
		WithArgs(int64(3), "tulp.jpg", "u-tulp.jpg", "rode tulpen", "image/jpeg", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(12), time.Now()))

	img, err := st.InsertImage(context.Background(), models.ImageAsset{
		AccessID: 3, Filename: "tulp.jpg", UniqueFilename: "u-tulp.jpg", Description: "rode tulpen", ContentType: "image/jpeg", Embedding: vec,
	})
	if err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	if img.ID != 12 {
		t.Fatalf("unexpected id %d", img.ID)
	}
}

func TestEncodeVectorLiteral(t *testing.T) {
	got, err := encodeVectorLiteral([]float32{0.1, -2, 3.5})
	if err != nil {
		t.Fatalf("encodeVectorLiteral: %v", err)
	}
	if got != "[0.1,-2,3.5]" {
		t.Fatalf("unexpected literal %q", got)
	}
}

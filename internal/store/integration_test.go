package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/mohammad-safakhou/contentagent/internal/store"
	"github.com/mohammad-safakhou/contentagent/models"
)

func startPostgres(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()
	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("pgvector/pgvector:pg16"),
		tcPostgres.WithDatabase("contentagent"),
		tcPostgres.WithUsername("contentagent"),
		tcPostgres.WithPassword("contentagent"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://contentagent:contentagent@%s:%s/contentagent?sslmode=disable", host, port.Port())

	m, err := migrate.New("file://../../migrations", dsn)
	if err != nil {
		t.Fatalf("migrate init: %v", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("migrate up: %v", err)
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		t.Fatalf("store init: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestContentLifecycleIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	st := startPostgres(t)

	var moduleID, accessID int64
	if err := st.DB.QueryRowContext(ctx, `INSERT INTO modules (name, slug, web_scraper, asset_library) VALUES ('Blog','blog',true,true) RETURNING id`).Scan(&moduleID); err != nil {
		t.Fatalf("seed module: %v", err)
	}
	if err := st.DB.QueryRowContext(ctx, `INSERT INTO org_module_access (org_id, module_id, prompt) VALUES ('org-1',$1,'Schrijf informeel') RETURNING id`, moduleID).Scan(&accessID); err != nil {
		t.Fatalf("seed access: %v", err)
	}

	m, err := st.GetModuleForOrg(ctx, "org-1", moduleID)
	if err != nil || !m.WebScraper {
		t.Fatalf("GetModuleForOrg: %+v %v", m, err)
	}
	if _, err := st.GetModuleForOrg(ctx, "org-2", moduleID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign org, got %v", err)
	}

	fresh, err := st.CreateContentItem(ctx, "org-1", moduleID, models.FormData{"titel": "Black Friday Deals!"})
	if err != nil {
		t.Fatalf("CreateContentItem: %v", err)
	}
	stale, err := st.CreateContentItem(ctx, "org-1", moduleID, models.FormData{"titel": "Vastgelopen"})
	if err != nil {
		t.Fatalf("CreateContentItem: %v", err)
	}
	if _, err := st.DB.ExecContext(ctx, `UPDATE content_items SET created_at = NOW() - INTERVAL '45 minutes' WHERE id = $1`, stale.ID); err != nil {
		t.Fatalf("age item: %v", err)
	}

	art, err := st.SaveArticle(ctx, "org-1", fresh.ID, "# Deals", models.OutputFormatMarkdown)
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if want := models.Slug("Black Friday Deals!", fresh.ID); art.PagePath != want {
		t.Fatalf("pagepath %q, want %q", art.PagePath, want)
	}

	cutoff := time.Now().Add(-30 * time.Minute)
	ids, err := st.SweepStale(ctx, cutoff)
	if err != nil {
		t.Fatalf("SweepStale: %v", err)
	}
	if len(ids) != 1 || ids[0] != stale.ID {
		t.Fatalf("expected only the stale item swept, got %v", ids)
	}
	again, err := st.SweepStale(ctx, cutoff)
	if err != nil || len(again) != 0 {
		t.Fatalf("expected idempotent sweep, got %v %v", again, err)
	}

	got, err := st.GetContentItem(ctx, "org-1", fresh.ID)
	if err != nil {
		t.Fatalf("GetContentItem: %v", err)
	}
	if got.Status != models.StatusPublished || len(got.Articles) != 1 {
		t.Fatalf("unexpected published item %+v", got)
	}

	if err := st.SoftDeleteContentItem(ctx, "org-1", fresh.ID); err != nil {
		t.Fatalf("SoftDeleteContentItem: %v", err)
	}
	got, err = st.GetContentItem(ctx, "org-1", fresh.ID)
	if err != nil {
		t.Fatalf("GetContentItem: %v", err)
	}
	if got.Status != models.StatusDeleted || got.Articles[0].Status != models.StatusDeleted {
		t.Fatalf("expected delete to cascade, got %+v", got)
	}
	if _, err := st.SaveArticle(ctx, "org-1", fresh.ID, "late", models.OutputFormatMarkdown); !errors.Is(err, models.ErrContentItemDeleted) {
		t.Fatalf("expected ErrContentItemDeleted, got %v", err)
	}

	vec := make([]float32, store.EmbeddingDimensions)
	vec[0] = 1
	if _, err := st.InsertImage(ctx, models.ImageAsset{AccessID: accessID, Filename: "tulp.jpg", UniqueFilename: "u1-tulp.jpg", Description: "tulpen", Embedding: vec}); err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	other := make([]float32, store.EmbeddingDimensions)
	other[1] = 1
	if _, err := st.InsertImage(ctx, models.ImageAsset{AccessID: accessID, Filename: "zee.jpg", UniqueFilename: "u2-zee.jpg", Description: "zee", Embedding: other}); err != nil {
		t.Fatalf("InsertImage: %v", err)
	}
	near, err := st.NearestImages(ctx, accessID, vec, 2)
	if err != nil {
		t.Fatalf("NearestImages: %v", err)
	}
	if len(near) != 2 || near[0].UniqueFilename != "u1-tulp.jpg" || near[0].Distance > near[1].Distance {
		t.Fatalf("unexpected neighbours %+v", near)
	}
}

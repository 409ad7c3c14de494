package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/mohammad-safakhou/contentagent/models"
)

var lockItemQuery = regexp.QuoteMeta(`SELECT title, status FROM content_items WHERE id = $1 AND org_id = $2 FOR UPDATE`)

func TestSaveArticlePublishesItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(lockItemQuery).WithArgs(int64(42), "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "status"}).AddRow("Black Friday Deals!", "writing"))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO articles (org_id, content_item_id, text, output_format, status, pagepath)`)).
		WithArgs("org-1", int64(42), "# Deals", "markdown", "black-friday-deals42").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE content_items SET status = 'published', updated_at = NOW() WHERE id = $1`)).
		WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	art, err := st.SaveArticle(context.Background(), "org-1", 42, "# Deals", models.OutputFormat(""))
	if err != nil {
		t.Fatalf("SaveArticle: %v", err)
	}
	if art.ID != 7 || art.PagePath != "black-friday-deals42" || art.Status != models.StatusPublished || art.OutputFormat != models.OutputFormatMarkdown {
		t.Fatalf("unexpected article %+v", art)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveArticleRejectsDeletedItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(lockItemQuery).WithArgs(int64(5), "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "status"}).AddRow("Oud", "deleted"))
	mock.ExpectRollback()

	if _, err := st.SaveArticle(context.Background(), "org-1", 5, "x", models.OutputFormatEmailHTML); !errors.Is(err, models.ErrContentItemDeleted) {
		t.Fatalf("expected ErrContentItemDeleted, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSaveArticleMissingItem(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}

	mock.ExpectBegin()
	mock.ExpectQuery(lockItemQuery).WithArgs(int64(99), "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"title", "status"}))
	mock.ExpectRollback()

	if _, err := st.SaveArticle(context.Background(), "org-1", 99, "x", models.OutputFormatMarkdown); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetArticleBySlug(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	cols := []string{"id", "org_id", "content_item_id", "text", "output_format", "status", "pagepath", "created_at"}
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE org_id = $1 AND pagepath = $2 AND status = 'published'`)).
		WithArgs("org-1", "tulpen3").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(4), "org-1", int64(3), "<p>hi</p>", "emailHTML", "published", "tulpen3", now))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE org_id = $1 AND pagepath = $2 AND status = 'published'`)).
		WithArgs("org-1", "missing1").
		WillReturnRows(sqlmock.NewRows(cols))

	art, err := st.GetArticleBySlug(context.Background(), "org-1", "tulpen3")
	if err != nil {
		t.Fatalf("GetArticleBySlug: %v", err)
	}
	if art.OutputFormat != models.OutputFormatEmailHTML || art.ContentItemID != 3 {
		t.Fatalf("unexpected article %+v", art)
	}
	if _, err := st.GetArticleBySlug(context.Background(), "org-1", "missing1"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPublishedArticles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	st := &Store{DB: db}
	now := time.Now()

	cols := []string{"id", "org_id", "content_item_id", "text", "output_format", "status", "pagepath", "created_at"}
	q := regexp.QuoteMeta(`WHERE org_id = $1 AND status = 'published'`)
	mock.ExpectQuery(q).WithArgs("org-1", 50).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(7), "org-1", int64(5), "nieuw", "markdown", "published", "lente5", now).
			AddRow(int64(4), "org-1", int64(3), "oud", "json", "published", "tulpen3", now.Add(-time.Hour)))
	mock.ExpectQuery(q).WithArgs("org-2", 10).WillReturnRows(sqlmock.NewRows(cols))

	list, err := st.ListPublishedArticles(context.Background(), "org-1", 0)
	if err != nil {
		t.Fatalf("ListPublishedArticles: %v", err)
	}
	if len(list) != 2 || list[0].PagePath != "lente5" || list[1].OutputFormat != models.OutputFormatJSON {
		t.Fatalf("unexpected articles %+v", list)
	}
	empty, err := st.ListPublishedArticles(context.Background(), "org-2", 10)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no articles, got %+v err=%v", empty, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

package web_search

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/internal/helpers"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/brave"
	"github.com/mohammad-safakhou/contentagent/tools/web_search/serper"
)

func TestNewSearcherUnsupported(t *testing.T) {
	if _, err := NewSearcher(context.Background(), config.SearchConfig{Provider: "bing"}); !errors.Is(err, ErrUnsupportedProvider) {
		t.Fatalf("expected ErrUnsupportedProvider, got %v", err)
	}
}

func TestNewSearcherSerper(t *testing.T) {
	s, err := NewSearcher(context.Background(), config.SearchConfig{Provider: "serper", SerperAPIKey: "k", MaxResults: 5, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewSearcher: %v", err)
	}
	if got, ok := s.(serper.Search); !ok || got.K != 5 || got.ApiKey != "k" {
		t.Fatalf("unexpected searcher %#v", s)
	}
}

func TestSerperSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "secret" {
			t.Errorf("missing api key header")
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "tulpen nieuws" {
			t.Errorf("unexpected query %v", body["q"])
		}
		_, _ = w.Write([]byte(`{"organic":[{"title":"A","link":"https://a.example","snippet":"s1"},{"title":"B","link":"https://b.example"},{"title":"C","link":"https://c.example"}]}`))
	}))
	defer srv.Close()

	s := serper.Search{ApiKey: "secret", Endpoint: srv.URL, K: 2, Client: helpers.NewHTTPClient(time.Second, 0, 0)}
	got, err := s.Search(context.Background(), "tulpen nieuws")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(got, "https://a.example") || !strings.Contains(got, "https://b.example") || strings.Contains(got, "https://c.example") {
		t.Fatalf("expected two results, got %q", got)
	}
}

func TestBraveSearchNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "lege zoekopdracht" || r.Header.Get("X-Subscription-Token") != "tok" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = w.Write([]byte(`{"web":{"results":[]}}`))
	}))
	defer srv.Close()

	s := brave.Search{ApiKey: "tok", Endpoint: srv.URL, K: 3, Client: helpers.NewHTTPClient(time.Second, 0, 0)}
	if _, err := s.Search(context.Background(), "lege zoekopdracht"); err == nil {
		t.Fatalf("expected error when no results")
	}
}

package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/provider"
)

func storesJSON(t *testing.T, entries ...map[string]string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"stores": entries})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestFilterCapsAndDedupes(t *testing.T) {
	var entries []map[string]string
	for i := 0; i < 60; i++ {
		entries = append(entries, map[string]string{fmt.Sprintf("Store %d", i): fmt.Sprintf("https://store%d.nl", i)})
	}
	// duplicates of the first entry after canonicalization
	entries = append([]map[string]string{
		{"Store 0": "https://store0.nl"},
		{"Store 0 again": "HTTPS://STORE0.nl/?utm_source=mail#top"},
	}, entries...)
	gen := &fakeGenerator{respond: func(context.Context, provider.CompletionRequest) (string, error) {
		return storesJSON(t, entries...), nil
	}}
	f := NewStoreListFilter(gen, "store-model", time.Second, 0, config.ScrapePolicyConfig{}, discardLogger())

	links, err := f.Filter(context.Background(), "Kerst", "candidates")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(links) != MaxStoreLinks {
		t.Fatalf("expected %d links, got %d", MaxStoreLinks, len(links))
	}
	seen := map[string]bool{}
	for _, l := range links {
		if seen[l.URL] {
			t.Fatalf("duplicate url %s", l.URL)
		}
		seen[l.URL] = true
	}
	if links[0].URL != "https://store0.nl/" || links[1].URL != "https://store1.nl/" {
		t.Fatalf("unexpected first links %+v", links[:2])
	}
	if calls := gen.callsFor("store-model"); len(calls) != 1 || !calls[0].JSON {
		t.Fatalf("expected one JSON-mode call, got %+v", calls)
	}
}

func TestFilterStripsMarkupFromNames(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, provider.CompletionRequest) (string, error) {
		return storesJSON(t, map[string]string{`<a href="x">Bloemist</a> <script>x()</script>Jansen`: "https://jansen.nl"}), nil
	}}
	f := NewStoreListFilter(gen, "store-model", time.Second, 0, config.ScrapePolicyConfig{}, discardLogger())

	links, err := f.Filter(context.Background(), "Kerst", "candidates")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(links) != 1 || strings.ContainsAny(links[0].Name, "<>") || !strings.Contains(links[0].Name, "Jansen") || strings.Contains(links[0].Name, "x()") {
		t.Fatalf("expected plain-text name, got %+v", links)
	}
}

func TestFilterAppliesScrapePolicy(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, provider.CompletionRequest) (string, error) {
		return storesJSON(t,
			map[string]string{"Blocked": "https://www.blocked.nl/shop"},
			map[string]string{"Sub": "https://shop.blocked.nl"},
			map[string]string{"Fine": "https://fine.nl"},
			map[string]string{"Broken": "ftp://fine.nl"},
		), nil
	}}
	policy := config.ScrapePolicyConfig{Disallow: []string{"blocked.nl"}}.Normalize()
	f := NewStoreListFilter(gen, "store-model", time.Second, 10, policy, discardLogger())

	links, err := f.Filter(context.Background(), "Kerst", "candidates")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(links) != 1 || links[0].Name != "Fine" || links[0].URL != "https://fine.nl/" {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestFilterRetriesOnceOnTimeout(t *testing.T) {
	var calls int
	gen := &fakeGenerator{respond: func(ctx context.Context, _ provider.CompletionRequest) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		if _, ok := ctx.Deadline(); ok {
			return "", errors.New("retry should not carry the filter deadline")
		}
		return "```json\n" + `{"stores":[{"A":"https://a.nl"}]}` + "\n```", nil
	}}
	f := NewStoreListFilter(gen, "store-model", 20*time.Millisecond, 50, config.ScrapePolicyConfig{}, discardLogger())

	links, err := f.Filter(context.Background(), "Kerst", "candidates")
	if err != nil {
		t.Fatalf("filter: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(links) != 1 || links[0].URL != "https://a.nl/" {
		t.Fatalf("unexpected links %+v", links)
	}
}

func TestFilterPropagatesRetryFailure(t *testing.T) {
	var calls int
	gen := &fakeGenerator{respond: func(ctx context.Context, _ provider.CompletionRequest) (string, error) {
		calls++
		if calls == 1 {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "", errors.New("upstream 500")
	}}
	f := NewStoreListFilter(gen, "store-model", 20*time.Millisecond, 50, config.ScrapePolicyConfig{}, discardLogger())

	_, err := f.Filter(context.Background(), "Kerst", "candidates")
	if err == nil || !strings.Contains(err.Error(), "upstream 500") {
		t.Fatalf("expected retry error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", calls)
	}
}

func TestFilterDoesNotRetryOtherErrors(t *testing.T) {
	gen := &fakeGenerator{respond: func(context.Context, provider.CompletionRequest) (string, error) {
		return "", errors.New("invalid api key")
	}}
	f := NewStoreListFilter(gen, "store-model", time.Second, 50, config.ScrapePolicyConfig{}, discardLogger())

	if _, err := f.Filter(context.Background(), "Kerst", "candidates"); err == nil {
		t.Fatalf("expected error")
	}
	if n := len(gen.callsFor("store-model")); n != 1 {
		t.Fatalf("expected 1 call, got %d", n)
	}
}

func TestFilterRejectsContractViolation(t *testing.T) {
	for _, raw := range []string{`{"shops":[]}`, `{"stores":[{"A":1}]}`, `not json at all`} {
		gen := &fakeGenerator{respond: func(context.Context, provider.CompletionRequest) (string, error) {
			return raw, nil
		}}
		f := NewStoreListFilter(gen, "store-model", time.Second, 50, config.ScrapePolicyConfig{}, discardLogger())
		if _, err := f.Filter(context.Background(), "Kerst", "candidates"); err == nil {
			t.Fatalf("expected contract error for %q", raw)
		}
	}
}

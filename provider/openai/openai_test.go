package openai_provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/provider"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(config.LLMConfig{
		APIKey:  "test-key",
		BaseURL: srv.URL + "/v1",
		Timeout: 5 * time.Second,
		Models:  config.LLMModels{Embedding: "text-embedding-3-small", Vision: "gpt-4o-mini"},
	})
}

func TestCompleteJSONMode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "gpt-4o" || body.ResponseFormat.Type != "json_object" {
			t.Errorf("unexpected request %+v", body)
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" || body.Messages[0].Content != "vat samen" {
			t.Errorf("unexpected messages %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"  {\"information\":\"ok\"} "}}]}`))
	})

	out, err := c.Complete(context.Background(), provider.CompletionRequest{Model: "gpt-4o", Prompt: "vat samen", JSON: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != `{"information":"ok"}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCompleteEmptyChoice(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":""}}]}`))
	})
	if _, err := c.Complete(context.Background(), provider.CompletionRequest{Model: "o3", Prompt: "x"}); !errors.Is(err, provider.ErrEmptyCompletion) {
		t.Fatalf("expected ErrEmptyCompletion, got %v", err)
	}
}

func TestEmbed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body struct {
			Model string   `json:"model"`
			Input []string `json:"input"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "text-embedding-3-small" || len(body.Input) != 1 || body.Input[0] != "rode tulpen" {
			t.Errorf("unexpected request %+v", body)
		}
		_, _ = w.Write([]byte(`{"object":"list","data":[{"object":"embedding","index":0,"embedding":[0.25,-0.5,1]}]}`))
	})
	vec, err := c.Embed(context.Background(), "rode tulpen")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.25 || vec[1] != -0.5 || vec[2] != 1 {
		t.Fatalf("unexpected vector %v", vec)
	}
}

func TestDescribeImage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Content []struct {
					Type     string `json:"type"`
					ImageURL *struct {
						URL string `json:"url"`
					} `json:"image_url"`
				} `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Model != "gpt-4o-mini" || body.MaxTokens != 300 {
			t.Errorf("unexpected request %+v", body)
		}
		if len(body.Messages) != 1 || len(body.Messages[0].Content) != 2 || body.Messages[0].Content[1].ImageURL == nil ||
			body.Messages[0].Content[1].ImageURL.URL != "https://cdn.example.com/a.png" {
			t.Errorf("unexpected multi content %+v", body.Messages)
		}
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"Een bos rode tulpen."}}]}`))
	})
	got, err := c.DescribeImage(context.Background(), "https://cdn.example.com/a.png", "Beschrijf")
	if err != nil {
		t.Fatalf("DescribeImage: %v", err)
	}
	if got != "Een bos rode tulpen." {
		t.Fatalf("unexpected description %q", got)
	}
}

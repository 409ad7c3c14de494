package gemini

import (
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestRenderResponseWithSources(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Tulpen bloeien "}, {Text: "dit jaar vroeg."}}},
			GroundingMetadata: &genai.GroundingMetadata{
				GroundingChunks: []*genai.GroundingChunk{
					{Web: &genai.GroundingChunkWeb{URI: "https://nos.example/tulpen", Title: "NOS"}},
					{Web: nil},
				},
			},
		}},
	}
	got, err := renderResponse(resp)
	if err != nil {
		t.Fatalf("renderResponse: %v", err)
	}
	if !strings.HasPrefix(got, "Tulpen bloeien dit jaar vroeg.") {
		t.Fatalf("unexpected text %q", got)
	}
	if !strings.Contains(got, "[1] NOS https://nos.example/tulpen") {
		t.Fatalf("expected source list, got %q", got)
	}
}

func TestRenderResponseEmpty(t *testing.T) {
	if _, err := renderResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatalf("expected error for no candidates")
	}
	empty := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}}}
	if _, err := renderResponse(empty); err == nil {
		t.Fatalf("expected error for blank text")
	}
}

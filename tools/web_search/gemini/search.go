package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Search runs a query through Gemini with the Google Search grounding tool and
// returns the grounded answer followed by its sources.
type Search struct {
	Client *genai.Client
	Model  string
}

func New(ctx context.Context, apiKey, model string) (*Search, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &Search{Client: client, Model: model}, nil
}

func (s *Search) Search(ctx context.Context, q string) (string, error) {
	resp, err := s.Client.Models.GenerateContent(ctx, s.Model,
		[]*genai.Content{genai.NewContentFromText(q, genai.RoleUser)},
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini search: %w", err)
	}
	return renderResponse(resp)
}

func renderResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("gemini search: no candidates")
	}
	cand := resp.Candidates[0]
	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && part.Text != "" {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", errors.New("gemini search: empty response")
	}
	if gm := cand.GroundingMetadata; gm != nil && len(gm.GroundingChunks) > 0 {
		var src strings.Builder
		n := 0
		for _, chunk := range gm.GroundingChunks {
			if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			n++
			fmt.Fprintf(&src, "[%d] %s %s\n", n, strings.TrimSpace(chunk.Web.Title), chunk.Web.URI)
		}
		if n > 0 {
			text += "\n\nBronnen:\n" + strings.TrimSpace(src.String())
		}
	}
	return text, nil
}

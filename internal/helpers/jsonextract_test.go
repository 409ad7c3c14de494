package helpers

import (
	"errors"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain object", `{"stores":[]}`, `{"stores":[]}`},
		{"fenced with language", "```json\n{\"valid\": true}\n```", `{"valid": true}`},
		{"prose prefix", `Here you go: {"information": "a {b} c"} thanks`, `{"information": "a {b} c"}`},
		{"escaped quote in string", `{"a": "say \"}\" now"}`, `{"a": "say \"}\" now"}`},
		{"array", `[1,[2,3]] trailing`, `[1,[2,3]]`},
		{"leading byte order mark", "\uFEFF```json\n{\"stores\":[]}\n```", `{"stores":[]}`},
	}
	for _, tt := range tests {
		got, err := ExtractJSON(tt.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: got %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for _, in := range []string{"", "no json here", `{"open": [1, 2}`} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrNoJSON) {
			t.Fatalf("expected ErrNoJSON for %q, got %v", in, err)
		}
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// readJSONArg decodes a literal JSON argument, or the file it names when prefixed with @.
func readJSONArg(arg string, out any) error {
	raw := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(strings.TrimPrefix(arg, "@"))
		if err != nil {
			return err
		}
		raw = b
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeJSON pulls the first JSON object or array out of a model reply, tolerating
// markdown fences and prose around it, and unmarshals it into v.
func DecodeJSON(reply string, v any) error {
	text := strings.TrimSpace(reply)
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return fmt.Errorf("no json in reply")
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		return fmt.Errorf("unterminated json in reply")
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), v); err != nil {
		return fmt.Errorf("decode llm json: %w", err)
	}
	return nil
}

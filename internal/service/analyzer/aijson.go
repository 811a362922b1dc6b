package analyzer

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object in model output")

// decodeModelJSON decodes the first JSON object in raw. Markdown fences and any
// prose around the object are ignored.
func decodeModelJSON(raw string, v any) error {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return errNoJSONObject
	}

	return json.Unmarshal([]byte(s[start:end+1]), v)
}

package vision

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Models wrap JSON in markdown fences or conversational text often enough
// that responses are scanned for the first JSON structure instead of being
// unmarshalled directly. Regexes use \x60 for backticks since Go raw strings
// cannot contain them.
var (
	fencedObjectRegex = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*({.*})\\s*\x60\x60\x60")
	fencedArrayRegex  = regexp.MustCompile("(?s)\x60\x60\x60(?:json)?\\s*(\\[.*\\])\\s*\x60\x60\x60")
)

// DecodeObject extracts and unmarshals the first JSON object in a model
// response.
func DecodeObject[T any](response string) (*T, error) {
	raw, err := extract(response, '{', '}', fencedObjectRegex)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w (extracted: %s)", err, truncate(raw, 300))
	}
	return &out, nil
}

// DecodeArray extracts and unmarshals the first JSON array in a model
// response.
func DecodeArray[T any](response string) ([]T, error) {
	raw, err := extract(response, '[', ']', fencedArrayRegex)
	if err != nil {
		return nil, err
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("failed to parse model response as JSON: %w (extracted: %s)", err, truncate(raw, 300))
	}
	return out, nil
}

func extract(response string, open, close byte, fenced *regexp.Regexp) (string, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("empty model response")
	}

	if strings.HasPrefix(response, "```") {
		if m := fenced.FindStringSubmatch(response); len(m) > 1 {
			return m[1], nil
		}
	}

	start := strings.IndexByte(response, open)
	end := strings.LastIndexByte(response, close)
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON %c...%c found in model response", open, close)
	}
	return response[start : end+1], nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

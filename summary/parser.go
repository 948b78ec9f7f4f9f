package summary

import (
	"encoding/json"
	"errors"
	"strings"
)

const fence = "```"

// ParseReport splits a response into report text and memory candidates. ok
// is true only when a trailing fenced block parsed into {"memories": [...]};
// the block is then removed from the report. Otherwise report is the raw
// response unchanged and memories is empty.
func ParseReport(raw string) (report string, memories []string, ok bool) {
	memories, start, err := parseTail(raw)
	if err != nil {
		return raw, []string{}, false
	}
	return strings.TrimSpace(raw[:start]), memories, true
}

var (
	errNoBlock   = errors.New("no trailing fenced block")
	errBadTag    = errors.New("fenced block is not json")
	errBadObject = errors.New("fenced block is not a memories object")
)

// parseTail returns the memories and the offset where the fenced block starts.
func parseTail(raw string) ([]string, int, error) {
	trimmed := strings.TrimRight(raw, " \t\r\n")
	if !strings.HasSuffix(trimmed, fence) {
		return nil, 0, errNoBlock
	}
	closeAt := len(trimmed) - len(fence)
	openAt := strings.LastIndex(trimmed[:closeAt], fence)
	if openAt < 0 {
		return nil, 0, errNoBlock
	}

	body := trimmed[openAt+len(fence) : closeAt]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		switch tag := strings.TrimSpace(body[:nl]); {
		case tag == "" || strings.EqualFold(tag, "json"):
			body = body[nl+1:]
		case !strings.HasPrefix(tag, "{"):
			return nil, 0, errBadTag
		}
	} else if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	body = strings.TrimSpace(body)

	obj, err := extractBalancedJSON(body)
	if err != nil {
		return nil, 0, err
	}
	if strings.TrimSpace(body[len(obj):]) != "" {
		return nil, 0, errBadObject
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, 0, err
	}
	rawMemories, found := payload["memories"]
	if !found {
		return nil, 0, errBadObject
	}
	var items []any
	if err := json.Unmarshal(rawMemories, &items); err != nil || items == nil {
		return nil, 0, errBadObject
	}

	memories := make([]string, 0, len(items))
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			continue
		}
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		memories = append(memories, s)
		if len(memories) == MaxNewMemories {
			break
		}
	}
	return memories, openAt, nil
}

// extractBalancedJSON returns the leading JSON object of s using a
// string-aware brace depth scan.
func extractBalancedJSON(s string) (string, error) {
	if len(s) == 0 || s[0] != '{' {
		return "", errors.New("string does not start with '{'")
	}

	depth := 0
	inString := false
	escaped := false

	for i, c := range s {
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], nil
			}
		}
	}

	return "", errors.New("unbalanced JSON object")
}

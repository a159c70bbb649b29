package llmclient

import "strings"

// Sanitize strips surrounding prose from a raw LLM response. If a fenced
// code block (```json ... ``` or ``` ... ```) is present, the first one's
// inner text is returned; otherwise the input is returned unchanged.
func Sanitize(raw string) string {
	text := strings.TrimSpace(raw)
	start := strings.Index(text, "```")
	if start == -1 {
		return text
	}
	rest := text[start+3:]
	// Skip an optional language tag on the opening fence line (e.g. "json\n").
	if nl := strings.IndexByte(rest, '\n'); nl != -1 {
		tag := strings.TrimSpace(rest[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{[\"") {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end == -1 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}

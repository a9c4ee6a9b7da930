package fields

import "strings"

const codeFence = "```"

// NormalizeCandidate strips the noise LLMs wrap around JSON: a leading BOM,
// a Markdown code fence and prose before or after the object. Top-level
// arrays are left intact so the validator rejects them.
// It never fails; the result may still be garbage for the validator to reject.
func NormalizeCandidate(raw string) string {
	s := stripFence(raw)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		s = window(s, '{', '}')
	}
	return s
}

// NormalizeArray is NormalizeCandidate for replies that should be a JSON
// array: prose around the outermost [ ... ] is dropped.
func NormalizeArray(raw string) string {
	s := stripFence(raw)
	if !strings.HasPrefix(s, "[") {
		s = window(s, '[', ']')
	}
	return s
}

func stripFence(raw string) string {
	s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff"))
	if !strings.HasPrefix(s, codeFence) {
		return s
	}
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		// single line: ```json{...}```
		s = strings.TrimLeft(strings.TrimPrefix(s, codeFence), "jsonJSON")
	}
	if end := strings.LastIndex(s, codeFence); end >= 0 {
		s = s[:end]
	}
	return strings.TrimSpace(s)
}

// window keeps s from the first open to the last closing delimiter, or s
// unchanged when there is no such pair.
func window(s string, open, closing byte) string {
	start := strings.IndexByte(s, open)
	end := strings.LastIndexByte(s, closing)
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

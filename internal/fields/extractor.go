// Package fields turns OCR text plus an untrusted LLM JSON candidate into a
// normalized, allow-listed map of ticket fields.
//
// Extraction never fails. A malformed or missing candidate degrades to regex
// fallback over the OCR text, and unparseable values are kept as they are.
package fields

import (
	"log/slog"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// Extractor is safe for concurrent use.
type Extractor struct {
	allowed  []string
	allowSet map[string]struct{}
	schema   *jsonschema.Schema
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for debug diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor builds an Extractor for the given allow-list.
// A nil list selects constants.DefaultFields; an empty non-nil list allows nothing.
func NewExtractor(allowed []string, opts ...Option) *Extractor {
	if allowed == nil {
		allowed = constants.DefaultFields()
	}
	e := &Extractor{
		allowSet: make(map[string]struct{}, len(allowed)),
		logger:   slog.Default(),
	}
	for _, k := range allowed {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, dup := e.allowSet[k]; dup {
			continue
		}
		e.allowSet[k] = struct{}{}
		e.allowed = append(e.allowed, k)
	}
	for _, o := range opts {
		o(e)
	}

	schema, err := compileSchema(BuildCandidateSchema(e.allowed))
	if err != nil {
		// strict validation is skipped; the lenient path still applies
		e.logger.Warn("fields.schema.compile_failed", "err", err)
	} else {
		e.schema = schema
	}
	return e
}

// Allowed returns the allow-list in configured order.
func (e *Extractor) Allowed() []string {
	out := make([]string, len(e.allowed))
	copy(out, e.allowed)
	return out
}

func (e *Extractor) allows(key string) bool {
	_, ok := e.allowSet[key]
	return ok
}

// Extract resolves fields in compact mode: unresolved keys are omitted.
func (e *Extractor) Extract(rawText, candidate string) *FieldMap {
	return e.ExtractMode(rawText, candidate, constants.ModeCompact)
}

// ExtractMode runs normalize candidate, validate, fallback fill and value
// normalization. In ModeDirect, keys the candidate named with a blank value
// are kept as "" when no fallback fills them.
func (e *Extractor) ExtractMode(rawText, candidate string, mode constants.ExtractMode) *FieldMap {
	out := e.adapt(NormalizeCandidate(candidate), mode)
	fromLLM := out.Len()
	e.fill(out, rawText)

	out.Range(func(k, v string) bool {
		if strings.TrimSpace(v) == "" {
			return true
		}
		switch k {
		case constants.FieldDate:
			out.values[k] = ToISODate(v)
		case constants.FieldTime:
			out.values[k] = To24h(v)
		case constants.FieldSeat:
			out.values[k] = FixSeatMisread(v)
		}
		return true
	})

	e.logger.Debug("fields.extract.done",
		"mode", string(mode),
		"from_llm", fromLLM,
		"total", out.Len(),
	)
	return out
}

// Complete returns a copy of m holding every key in keys, in keys order,
// with "" for keys m lacks. Keys outside keys are appended after them.
func Complete(m *FieldMap, keys []string) *FieldMap {
	out := NewFieldMap()
	for _, k := range keys {
		v, _ := m.Get(k)
		out.Set(k, v)
	}
	m.Range(func(k, v string) bool {
		out.SetIfAbsent(k, v)
		return true
	})
	return out
}

// Extract is a convenience wrapper building a one-off Extractor for allowed.
func Extract(rawText, candidate string, allowed []string) *FieldMap {
	return NewExtractor(allowed).Extract(rawText, candidate)
}

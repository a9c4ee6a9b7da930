package fields

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// adapt turns a normalized candidate into a FieldMap restricted to the allow-list.
// Malformed candidates yield an empty map; nothing here returns an error.
func (e *Extractor) adapt(candidate string, mode constants.ExtractMode) *FieldMap {
	out := NewFieldMap()
	if candidate == "" {
		return out
	}

	keepBlank := mode == constants.ModeDirect
	if e.schema != nil {
		err := validateAgainst(e.schema, candidate)
		if err == nil {
			e.collect(out, gjson.Parse(candidate), keepBlank)
			e.logger.Debug("fields.candidate.strict", "keys", out.Keys())
			return out
		}
		e.logger.Debug("fields.candidate.lenient", "reason", err.Error())
	}

	if !gjson.Valid(candidate) {
		e.logger.Debug("fields.candidate.rejected", "reason", "invalid json", "len", len(candidate))
		return out
	}
	doc := gjson.Parse(candidate)
	if !doc.IsObject() {
		e.logger.Debug("fields.candidate.rejected", "reason", "not an object", "type", doc.Type.String())
		return out
	}
	dropped := e.collect(out, doc, keepBlank)
	if len(dropped) > 0 {
		e.logger.Debug("fields.candidate.dropped", "dropped", dropped)
	}
	return out
}

// collect copies the allowed scalar members of doc into out, in document order.
// Placeholder values ("", "null", "unknown", JSON null) are dropped unless
// keepBlank is set, in which case they are kept as "".
func (e *Extractor) collect(out *FieldMap, doc gjson.Result, keepBlank bool) []string {
	var dropped []string
	doc.ForEach(func(key, value gjson.Result) bool {
		k := key.String()
		if !e.allows(k) {
			dropped = append(dropped, k+"(unknown)")
			return true
		}
		var v string
		switch value.Type {
		case gjson.String, gjson.Number, gjson.True, gjson.False:
			v = strings.TrimSpace(value.String())
		case gjson.Null:
			v = ""
		default:
			dropped = append(dropped, k+"(type)")
			return true
		}
		if isPlaceholder(v) {
			if keepBlank {
				out.Set(k, "")
			} else {
				dropped = append(dropped, k+"(empty)")
			}
			return true
		}
		out.Set(k, v)
		return true
	})
	return dropped
}

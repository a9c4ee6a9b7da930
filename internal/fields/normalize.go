package fields

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	reISODate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reYMD     = regexp.MustCompile(`(20\d{2})[.년\-\s/]*(\d{1,2})[.월\-\s/]*(\d{1,2})`)

	reHourMinuteKo = regexp.MustCompile(`(\d{1,2})\s*시\s*(\d{1,2})\s*분`)
	reHourKo       = regexp.MustCompile(`(\d{1,2})\s*시`)
	reMarkerFirst  = regexp.MustCompile(`(?i)\b(AM|PM)\s*(\d{1,2})(?::(\d{1,2}))?`)
	reMarkerLast   = regexp.MustCompile(`(?i)(\d{1,2}):(\d{1,2})\s*(AM|PM)\b`)
	reBareClock    = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	reClock24      = regexp.MustCompile(`^\d{2}:\d{2}$`)

	reSeatMisread = regexp.MustCompile(`(\d+)\s*일\s*(\d+)\s*번`)
	reSpaces      = regexp.MustCompile(`\s+`)
)

// ToISODate rewrites the first plausible 20xx year/month/day found in s as
// YYYY-MM-DD. Input already in that shape, or with no usable date, is returned as is.
func ToISODate(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	t := strings.TrimSpace(s)
	if reISODate.MatchString(t) {
		return t
	}
	out := s
	scan(reYMD, t, func(m []string) bool {
		if v, ok := formatYMD(m[1], m[2], m[3]); ok {
			out = v
			return true
		}
		return false
	})
	return out
}

func formatYMD(year, month, day string) (string, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return "", false
	}
	mo, err := strconv.Atoi(month)
	if err != nil || mo < 1 || mo > 12 {
		return "", false
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mo, d), true
}

// To24h converts a 12-hour clock reading, with Korean (오전/오후) or Latin
// (AM/PM) markers, to HH:MM. Korean hour notation (7시, 7시 30분) is accepted.
// Strings it cannot interpret are returned untouched.
func To24h(s string) string {
	if strings.TrimSpace(s) == "" {
		return s
	}
	t := strings.TrimSpace(s)
	t = strings.ReplaceAll(t, "오전", "AM")
	t = strings.ReplaceAll(t, "오후", "PM")
	t = reHourMinuteKo.ReplaceAllStringFunc(t, padKoreanMinutes)
	t = reHourKo.ReplaceAllString(t, "${1}:00")

	if m := reMarkerFirst.FindStringSubmatch(t); m != nil {
		if v, ok := clock12(m[1], m[2], m[3]); ok {
			return v
		}
	}
	if m := reMarkerLast.FindStringSubmatch(t); m != nil {
		if v, ok := clock12(m[3], m[1], m[2]); ok {
			return v
		}
	}
	if reBareClock.MatchString(t) {
		return t
	}
	return s
}

// padKoreanMinutes rewrites "7시 5분" as "7:05".
func padKoreanMinutes(s string) string {
	m := reHourMinuteKo.FindStringSubmatch(s)
	mm, err := strconv.Atoi(m[2])
	if err != nil {
		return s
	}
	return fmt.Sprintf("%s:%02d", m[1], mm)
}

// clock12 applies the 12-hour convention: PM adds 12 to hours 1-11, AM maps 12 to 0.
func clock12(marker, hour, minute string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil {
		return "", false
	}
	mm := 0
	if minute != "" {
		if mm, err = strconv.Atoi(minute); err != nil {
			return "", false
		}
	}
	switch strings.ToUpper(marker) {
	case "PM":
		if h >= 1 && h < 12 {
			h += 12
		}
	case "AM":
		if h == 12 {
			h = 0
		}
	}
	return clock24(h, mm)
}

func clock24(h, mm int) (string, bool) {
	if h < 0 || h > 23 || mm < 0 || mm > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, mm), true
}

// FixSeatMisread rewrites "<N> 일 <M> 번" as "<N>열 <M>번"; OCR often reads 열 (row) as 일 (day).
func FixSeatMisread(s string) string {
	return reSeatMisread.ReplaceAllString(s, "${1}열 ${2}번")
}

// collapseSpace folds every whitespace run, newlines included, into one space.
func collapseSpace(s string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// isPlaceholder reports values an LLM uses to say "not found".
func isPlaceholder(v string) bool {
	t := strings.TrimSpace(v)
	return t == "" || strings.EqualFold(t, "null") || strings.EqualFold(t, "unknown")
}

// scan walks every match of re in s, overlapping ones included, until fn accepts one.
func scan(re *regexp.Regexp, s string, fn func(m []string) bool) bool {
	for pos := 0; pos < len(s); {
		loc := re.FindStringSubmatchIndex(s[pos:])
		if loc == nil {
			return false
		}
		m := make([]string, len(loc)/2)
		for i := range m {
			if loc[2*i] >= 0 {
				m[i] = s[pos+loc[2*i] : pos+loc[2*i+1]]
			}
		}
		if fn(m) {
			return true
		}
		// resume one rune past the start of the rejected match
		step := loc[0] + 1
		for pos+step < len(s) && !utf8Start(s[pos+step]) {
			step++
		}
		pos += step
	}
	return false
}

func utf8Start(b byte) bool {
	return b&0xC0 != 0x80
}

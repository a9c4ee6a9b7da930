package ocr

import "regexp"

var (
	reDate  = regexp.MustCompile(`20\d{2}\s*[.년\-/]\s*\d{1,2}`)
	reTime  = regexp.MustCompile(`(?i)\d{1,2}\s*(:\s*\d{2}|시)|오전|오후|\b[ap]m\b`)
	reSeat  = regexp.MustCompile(`\d+\s*[열일]\s*\d+\s*번|구역|층`)
	reVenue = regexp.MustCompile(`홀|극장|경기장|공원|아트센터|돔|전당|(?i)\bhall\b`)
)

// TicketConfidence is a naive score in 0..1 for how much text looks like a
// concert ticket: date, time, seat and venue markers each add weight.
func TicketConfidence(txt string) float32 {
	score := float32(0.2) // base
	if reDate.MatchString(txt) {
		score += 0.2
	}
	if reTime.MatchString(txt) {
		score += 0.15
	}
	if reSeat.MatchString(txt) {
		score += 0.15
	}
	if reVenue.MatchString(txt) {
		score += 0.15
	}
	if len([]rune(txt)) > 60 {
		score += 0.1
	} // enough content
	if score > 1.0 {
		score = 1.0
	}
	return score
}

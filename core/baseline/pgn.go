package baseline

import (
	"strconv"
	"strings"
)

// renderPGNBounded joins a SAN move sequence into a numbered PGN-ish main
// line, truncated to at most maxChars without splitting a move token mid-
// way (spec §8's testable property).
func renderPGNBounded(moves []string, maxChars int) string {
	if len(moves) == 0 {
		return ""
	}
	var b strings.Builder
	for i, san := range moves {
		var token string
		if i%2 == 0 {
			token = strconv.Itoa(i/2+1) + ". " + san
		} else {
			token = san
		}
		candidate := token
		if b.Len() > 0 {
			candidate = " " + token
		}
		if maxChars > 0 && b.Len()+len(candidate) > maxChars {
			break
		}
		b.WriteString(candidate)
	}
	return b.String()
}

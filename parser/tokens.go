package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Token shape predicates. The report revisions differ only in whether
// certain middle columns exist, so classification works on what a token
// looks like, never on its column index.
var (
	integerRe  = regexp.MustCompile(`^\d{1,3}(,\d{3})*$|^\d+$`)
	currencyRe = regexp.MustCompile(`^\d{1,3}(,\d{3})*\.\d{2}$`)
	percentRe  = regexp.MustCompile(`^-?\d+(\.\d+)?%$`)
	timeRe     = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
)

// Date layouts seen across report revisions, tried in order.
var dateLayouts = []string{
	"01/02/2006",
	"2006-01-02",
	"1/2/2006",
	"01/02/06",
}

// IsInteger reports whether the token is a bare count: digits with optional
// comma thousands separators and no decimal part.
func IsInteger(tok string) bool {
	return integerRe.MatchString(tok)
}

// IsCurrency reports whether the token is a money amount: exactly two
// decimal places with optional comma thousands separators.
func IsCurrency(tok string) bool {
	return currencyRe.MatchString(tok)
}

// IsPercentage reports whether the token carries a trailing percent sign.
func IsPercentage(tok string) bool {
	return percentRe.MatchString(tok)
}

// IsDate reports whether the token parses under any known date layout.
func IsDate(tok string) bool {
	_, ok := parseDate(tok)
	return ok
}

// IsClockTime reports whether the token looks like an HH:MM curtain time.
func IsClockTime(tok string) bool {
	return timeRe.MatchString(tok)
}

func parseDate(tok string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, tok); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseCount converts an integer-shaped token to an int. Returns 0 for
// tokens that do not parse; count fields degrade to zero rather than
// aborting the record.
func parseCount(tok string) int {
	n, err := strconv.Atoi(strings.ReplaceAll(tok, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

// parseCurrency converts a currency-shaped token to a float64 amount.
func parseCurrency(tok string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(tok, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// parsePercent converts a percentage-shaped token to its numeric value,
// e.g. "85.3%" -> 85.3.
func parsePercent(tok string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
	if err != nil {
		return 0
	}
	return f
}

// isTotalMarker reports whether the token is a subtotal-row label. A
// code-shaped token immediately preceded by one of these belongs to a
// summary row, not a performance row.
func isTotalMarker(tok string) bool {
	switch strings.ToLower(strings.TrimSuffix(tok, ":")) {
	case "total", "totals", "subtotal":
		return true
	}
	return false
}

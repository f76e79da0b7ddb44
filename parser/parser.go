// Package parser converts one box-office report document, rendered as an
// ordered sequence of positional text tokens per page, into structured
// per-performance sales records.
//
// The reports are laid out visually, not tagged by field name, and the
// layout drifted across years of revisions: some revisions carry a
// reserved/complimentary column pair, some do not. The parser therefore
// classifies tokens by shape (integer, currency, percentage) and uses
// conditional lookahead to decide whether the optional columns are present,
// instead of trusting fixed column indices.
package parser

import (
	"fmt"
	"regexp"
	"time"

	"boxoffice-pulse/config"
)

// Record is one parsed per-performance sales row. Optional fields default
// to zero; the record is validated immediately after parsing rather than
// passed through the pipeline as an untyped map.
type Record struct {
	Code     string
	StartsAt time.Time

	BudgetPct float64

	FixedCount    int
	FixedRevenue  float64
	FlexCount     int
	FlexRevenue   float64
	SingleCount   int
	SingleRevenue float64

	SubtotalRevenue float64

	// Optional pair, present only in some report revisions.
	ReservedCount   int
	ReservedRevenue float64

	TotalRevenue   float64
	AvailableSeats int
	CapacityPct    float64

	// Derived
	TotalCount     int
	AvgPriceFixed  float64
	AvgPriceFlex   float64
	AvgPriceSingle float64
}

// Parser scans token streams for performance rows
type Parser struct {
	codeRe *regexp.Regexp
}

// New creates a parser for the configured performance-code shape.
func New(cfg config.PipelineConfig) (*Parser, error) {
	codeRe, err := regexp.Compile(cfg.PerformanceCodePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid performance code pattern %q: %w", cfg.PerformanceCodePattern, err)
	}
	return &Parser{codeRe: codeRe}, nil
}

// ParsePages parses every page of a document and returns all performance
// records found. A malformed row degrades to zeroed trailing fields; it
// never aborts the document.
func (p *Parser) ParsePages(pages [][]string) []Record {
	var records []Record
	for _, page := range pages {
		records = append(records, p.Parse(page)...)
	}
	return records
}

// Parse scans one page's token sequence for performance rows.
func (p *Parser) Parse(tokens []string) []Record {
	var records []Record

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if !p.codeRe.MatchString(tok) {
			continue
		}
		// A code right after a "Total" marker is a subtotal row label,
		// not a performance row.
		if i > 0 && isTotalMarker(tokens[i-1]) {
			continue
		}
		rec, next := p.consumeRecord(tokens, i)
		records = append(records, rec)
		i = next - 1
	}

	return records
}

// consumeRecord reads one performance row starting at the code token and
// returns the record plus the index of the first unconsumed token.
//
// Fixed field order after the code: date (optional curtain time),
// budget-percent, fixed count+revenue, flex count+revenue, single
// count+revenue, subtotal revenue. Then the conditional reserved pair, then
// total revenue, available seats, capacity-percent.
func (p *Parser) consumeRecord(tokens []string, start int) (Record, int) {
	rec := Record{Code: tokens[start]}
	cur := &cursor{tokens: tokens, pos: start + 1, codeRe: p.codeRe}

	if d, ok := cur.takeDate(); ok {
		rec.StartsAt = d
		if t, ok := cur.takeClockTime(); ok {
			rec.StartsAt = rec.StartsAt.Add(t)
		}
	}

	rec.BudgetPct = cur.takePercent()

	rec.FixedCount = cur.takeCount()
	rec.FixedRevenue = cur.takeCurrency()
	rec.FlexCount = cur.takeCount()
	rec.FlexRevenue = cur.takeCurrency()
	rec.SingleCount = cur.takeCount()
	rec.SingleRevenue = cur.takeCurrency()
	rec.SubtotalRevenue = cur.takeCurrency()

	// Conditional lookahead: the reserved/complimentary pair exists only in
	// some revisions. A bare integer here cannot be the total revenue
	// (currency-shaped), so its presence identifies the column.
	if cur.peekInteger() {
		rec.ReservedCount = cur.takeCount()
		if cur.peekCurrency() {
			rec.ReservedRevenue = cur.takeCurrency()
		}
	}

	rec.TotalRevenue = cur.takeCurrency()
	rec.AvailableSeats = cur.takeCount()
	rec.CapacityPct = cur.takePercent()

	rec.TotalCount = rec.FixedCount + rec.FlexCount + rec.SingleCount + rec.ReservedCount
	rec.AvgPriceFixed = safeAverage(rec.FixedRevenue, rec.FixedCount)
	rec.AvgPriceFlex = safeAverage(rec.FlexRevenue, rec.FlexCount)
	rec.AvgPriceSingle = safeAverage(rec.SingleRevenue, rec.SingleCount)

	return rec, cur.pos
}

// Validate rejects records that cannot have come from a well-formed row.
func (p *Parser) Validate(rec Record) error {
	if rec.Code == "" {
		return fmt.Errorf("record has no performance code")
	}
	if rec.TotalCount < 0 || rec.TotalRevenue < 0 {
		return fmt.Errorf("record %s has negative measures", rec.Code)
	}
	return nil
}

// FindReportDate scans the leading tokens of a document for the printed
// as-of date. Used by the batch controller's content-first date derivation.
func FindReportDate(pages [][]string) (time.Time, bool) {
	if len(pages) == 0 {
		return time.Time{}, false
	}
	for _, tok := range pages[0] {
		if d, ok := parseDate(tok); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// safeAverage derives an average ticket price, zero when the channel sold
// nothing.
func safeAverage(revenue float64, count int) float64 {
	if count == 0 {
		return 0
	}
	return revenue / float64(count)
}

// cursor consumes tokens in the fixed field order. Consumption stops at the
// first token that does not match the expected shape, or at the next
// performance code; fields not consumed keep their zero value. That is what
// lets a truncated row on an old report revision degrade instead of
// swallowing the next row's tokens.
type cursor struct {
	tokens  []string
	pos     int
	codeRe  *regexp.Regexp
	stopped bool
}

func (c *cursor) peek() (string, bool) {
	if c.stopped || c.pos >= len(c.tokens) {
		return "", false
	}
	tok := c.tokens[c.pos]
	// Never consume into the next row.
	if c.codeRe.MatchString(tok) && !IsInteger(tok) {
		return "", false
	}
	return tok, true
}

func (c *cursor) peekInteger() bool {
	tok, ok := c.peek()
	return ok && IsInteger(tok)
}

func (c *cursor) peekCurrency() bool {
	tok, ok := c.peek()
	return ok && IsCurrency(tok)
}

func (c *cursor) takeCount() int {
	tok, ok := c.peek()
	if !ok || !IsInteger(tok) {
		c.stopped = true
		return 0
	}
	c.pos++
	return parseCount(tok)
}

func (c *cursor) takeCurrency() float64 {
	tok, ok := c.peek()
	if !ok || !IsCurrency(tok) {
		c.stopped = true
		return 0
	}
	c.pos++
	return parseCurrency(tok)
}

func (c *cursor) takePercent() float64 {
	tok, ok := c.peek()
	if !ok || !IsPercentage(tok) {
		c.stopped = true
		return 0
	}
	c.pos++
	return parsePercent(tok)
}

func (c *cursor) takeDate() (time.Time, bool) {
	tok, ok := c.peek()
	if !ok {
		c.stopped = true
		return time.Time{}, false
	}
	d, isDate := parseDate(tok)
	if !isDate {
		c.stopped = true
		return time.Time{}, false
	}
	c.pos++
	return d, true
}

func (c *cursor) takeClockTime() (time.Duration, bool) {
	tok, ok := c.peek()
	if !ok || !IsClockTime(tok) {
		return 0, false
	}
	var hh, mm int
	if _, err := fmt.Sscanf(tok, "%d:%d", &hh, &mm); err != nil {
		return 0, false
	}
	c.pos++
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, true
}

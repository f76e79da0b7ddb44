package parser

import (
	"testing"
	"time"

	"boxoffice-pulse/config"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(config.PipelineConfig{PerformanceCodePattern: `^[A-Z]{1,3}\d{1,4}$`})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

// Row without the optional reserved/complimentary pair (older report
// revision): subtotal revenue is followed directly by total revenue.
var rowWithoutReserved = []string{
	"A12", "03/15/2026", "19:30", "82.5%",
	"120", "3,600.00",
	"45", "1,350.00",
	"210", "8,400.00",
	"13,350.00",
	"13,350.00", "153", "71.2%",
}

// Row with the reserved pair (newer revision): a bare integer after the
// subtotal identifies the optional column.
var rowWithReserved = []string{
	"B7", "03/15/2026", "19:30", "90.0%",
	"120", "3,600.00",
	"45", "1,350.00",
	"210", "8,400.00",
	"13,350.00",
	"12", "480.00",
	"13,830.00", "141", "73.4%",
}

func TestParseRevisionWithoutReserved(t *testing.T) {
	p := newTestParser(t)

	records := p.Parse(rowWithoutReserved)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.Code != "A12" {
		t.Errorf("code = %q, want A12", rec.Code)
	}
	want := time.Date(2026, 3, 15, 19, 30, 0, 0, time.UTC)
	if !rec.StartsAt.Equal(want) {
		t.Errorf("starts at = %v, want %v", rec.StartsAt, want)
	}
	if rec.BudgetPct != 82.5 {
		t.Errorf("budget pct = %f, want 82.5", rec.BudgetPct)
	}
	if rec.FixedCount != 120 || rec.FlexCount != 45 || rec.SingleCount != 210 {
		t.Errorf("counts = %d/%d/%d, want 120/45/210", rec.FixedCount, rec.FlexCount, rec.SingleCount)
	}
	if rec.ReservedCount != 0 || rec.ReservedRevenue != 0 {
		t.Errorf("reserved = %d/%f, want absent", rec.ReservedCount, rec.ReservedRevenue)
	}
	if rec.TotalCount != 375 {
		t.Errorf("total count = %d, want 375", rec.TotalCount)
	}
	if rec.TotalRevenue != 13350.0 {
		t.Errorf("total revenue = %f, want 13350", rec.TotalRevenue)
	}
	if rec.AvailableSeats != 153 {
		t.Errorf("available seats = %d, want 153", rec.AvailableSeats)
	}
	if rec.CapacityPct != 71.2 {
		t.Errorf("capacity pct = %f, want 71.2", rec.CapacityPct)
	}
}

func TestParseRevisionWithReserved(t *testing.T) {
	p := newTestParser(t)

	records := p.Parse(rowWithReserved)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.ReservedCount != 12 {
		t.Errorf("reserved count = %d, want 12", rec.ReservedCount)
	}
	if rec.ReservedRevenue != 480.0 {
		t.Errorf("reserved revenue = %f, want 480", rec.ReservedRevenue)
	}
	if rec.TotalCount != 387 {
		t.Errorf("total count = %d, want 387", rec.TotalCount)
	}
	if rec.TotalRevenue != 13830.0 {
		t.Errorf("total revenue = %f, want 13830", rec.TotalRevenue)
	}
	if rec.AvailableSeats != 141 {
		t.Errorf("available seats = %d, want 141", rec.AvailableSeats)
	}
}

// Both revisions must parse with the same parser, no per-revision
// configuration: presence of the optional column is inferred from token
// shape alone.
func TestParseMixedRevisionsOnOnePage(t *testing.T) {
	p := newTestParser(t)

	tokens := append(append([]string{}, rowWithoutReserved...), rowWithReserved...)
	records := p.Parse(tokens)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ReservedCount != 0 {
		t.Errorf("first record reserved = %d, want 0", records[0].ReservedCount)
	}
	if records[1].ReservedCount != 12 {
		t.Errorf("second record reserved = %d, want 12", records[1].ReservedCount)
	}
}

func TestParseSkipsSubtotalRows(t *testing.T) {
	p := newTestParser(t)

	tokens := []string{"Total", "A99", "500", "12,000.00"}
	if records := p.Parse(tokens); len(records) != 0 {
		t.Errorf("expected subtotal row to be skipped, got %d records", len(records))
	}
}

func TestParseTruncatedRowDefaultsTrailingFields(t *testing.T) {
	p := newTestParser(t)

	// Row cut off after the flexible-package pair: the single-ticket pair,
	// subtotal, totals, seats and capacity all default to zero rather than
	// aborting the document.
	tokens := []string{
		"C3", "03/15/2026", "75.0%",
		"100", "3,000.00",
		"20", "600.00",
	}
	records := p.Parse(tokens)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]
	if rec.FixedCount != 100 || rec.FixedRevenue != 3000.0 {
		t.Errorf("fixed = %d/%f, want 100/3000", rec.FixedCount, rec.FixedRevenue)
	}
	if rec.SingleCount != 0 || rec.SubtotalRevenue != 0 || rec.TotalRevenue != 0 || rec.CapacityPct != 0 {
		t.Errorf("trailing fields should default to zero, got %+v", rec)
	}
}

func TestParseNeverConsumesIntoNextRow(t *testing.T) {
	p := newTestParser(t)

	// First row truncated mid-record, immediately followed by a complete
	// row. The second row must survive intact.
	tokens := append([]string{"D1", "03/14/2026", "50.0%", "10", "300.00"}, rowWithoutReserved...)
	records := p.Parse(tokens)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].Code != "A12" || records[1].TotalCount != 375 {
		t.Errorf("second row mangled: %+v", records[1])
	}
}

func TestAveragePriceDerivation(t *testing.T) {
	tests := []struct {
		name    string
		revenue float64
		count   int
		want    float64
	}{
		{name: "normal", revenue: 3600, count: 120, want: 30},
		{name: "zero count never faults", revenue: 0, count: 0, want: 0},
		{name: "revenue without count", revenue: 100, count: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := safeAverage(tt.revenue, tt.count); got != tt.want {
				t.Errorf("safeAverage(%f, %d) = %f, want %f", tt.revenue, tt.count, got, tt.want)
			}
		})
	}
}

func TestFindReportDate(t *testing.T) {
	pages := [][]string{{"Weekly", "Sales", "Report", "03/20/2026", "Page", "1"}}
	d, ok := FindReportDate(pages)
	if !ok {
		t.Fatal("expected a report date")
	}
	want := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("date = %v, want %v", d, want)
	}

	if _, ok := FindReportDate([][]string{{"no", "date", "here"}}); ok {
		t.Error("expected no date")
	}
	if _, ok := FindReportDate(nil); ok {
		t.Error("expected no date for empty document")
	}
}

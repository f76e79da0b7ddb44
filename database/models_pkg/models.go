package models

import "time"

// Performance is the canonical record for one scheduled event.
// Rows are created when a performance is first observed by any ingestion
// path and updated rarely (metadata only); they are never deleted.
//
// Key Fields:
//   - Code: short alphanumeric box-office code, the natural key (unique)
//   - StartsAt: scheduled date and time of the event
//   - Capacity: sellable seats in the venue configuration for this event
//   - Series: season or subscription series classification
//
// The ingestion pipeline reads this table only to validate that incoming
// report rows reference a known performance.
type Performance struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code     string    `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Title    string    `gorm:"size:200" json:"title"`
	StartsAt time.Time `gorm:"index" json:"starts_at"`
	Venue    string    `gorm:"size:100" json:"venue"`
	Capacity int       `json:"capacity"`
	Series   string    `gorm:"size:50;index" json:"series"`
	Season   string    `gorm:"size:20;index" json:"season"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for Performance
func (Performance) TableName() string {
	return "performances"
}

// SalesSnapshot is the sales state of one performance as observed on one
// as-of date. The pair (performance_code, as_of_date) is unique: a later
// write with the same key replaces the row's measures, it never creates a
// duplicate. Corrections arrive as additional upserts, never as deletes.
//
// Ticket counts and revenue are partitioned by sales channel:
//   - Fixed: fixed/subscription packages
//   - Flex: flexible (non-fixed) packages
//   - Single: single-ticket sales
//   - Reserved: reserved or complimentary seats (optional column in the
//     source reports, absent in older revisions)
type SalesSnapshot struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PerformanceCode string    `gorm:"size:10;not null;uniqueIndex:idx_snapshot_code_date" json:"performance_code"`
	AsOfDate        time.Time `gorm:"type:date;not null;uniqueIndex:idx_snapshot_code_date" json:"as_of_date"`

	FixedCount    int `gorm:"not null" json:"fixed_count"`
	FlexCount     int `gorm:"not null" json:"flex_count"`
	SingleCount   int `gorm:"not null" json:"single_count"`
	ReservedCount int `gorm:"not null" json:"reserved_count"`
	TotalCount    int `gorm:"not null;index" json:"total_count"`

	FixedRevenue    float64 `gorm:"type:decimal(12,2);not null" json:"fixed_revenue"`
	FlexRevenue     float64 `gorm:"type:decimal(12,2);not null" json:"flex_revenue"`
	SingleRevenue   float64 `gorm:"type:decimal(12,2);not null" json:"single_revenue"`
	ReservedRevenue float64 `gorm:"type:decimal(12,2);not null" json:"reserved_revenue"`
	SubtotalRevenue float64 `gorm:"type:decimal(12,2)" json:"subtotal_revenue"`
	TotalRevenue    float64 `gorm:"type:decimal(12,2);not null" json:"total_revenue"`

	AvailableSeats int     `json:"available_seats"`
	CapacityPct    float64 `gorm:"type:decimal(5,2)" json:"capacity_pct"`
	BudgetPct      float64 `gorm:"type:decimal(6,2)" json:"budget_pct"`

	AvgPriceFixed  float64 `gorm:"type:decimal(10,2)" json:"avg_price_fixed"`
	AvgPriceFlex   float64 `gorm:"type:decimal(10,2)" json:"avg_price_flex"`
	AvgPriceSingle float64 `gorm:"type:decimal(10,2)" json:"avg_price_single"`

	Provenance string    `gorm:"size:30;not null" json:"provenance"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for SalesSnapshot
func (SalesSnapshot) TableName() string {
	return "sales_snapshots"
}

// WeeklySalesPoint is one point on a performance's sales-pacing curve,
// keyed by (performance_code, weeks_out). WeeksOut counts down from the
// pacing window length to 0 (the performance week); the set of weeks is
// fixed per performance. Points are mutated only by direct observation or
// by the trend backfill, and Source records which one wrote the value.
type WeeklySalesPoint struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PerformanceCode string    `gorm:"size:10;not null;uniqueIndex:idx_weekly_code_week" json:"performance_code"`
	WeeksOut        int       `gorm:"not null;uniqueIndex:idx_weekly_code_week" json:"weeks_out"`
	Tickets         int       `gorm:"not null" json:"tickets"`
	Source          string    `gorm:"size:20;not null" json:"source"` // observed, backfill
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for WeeklySalesPoint
func (WeeklySalesPoint) TableName() string {
	return "weekly_sales_points"
}

// TrendAdjustment is the append-only audit record written whenever the
// backfill redistributes a correction across a pacing curve. It exists
// purely so an analyst can explain why a historical curve changed shape
// after the fact; it is never mutated.
type TrendAdjustment struct {
	ID              int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PerformanceCode string    `gorm:"size:10;index;not null" json:"performance_code"`
	SnapshotID      int64     `gorm:"index" json:"snapshot_id"`
	OldTotal        int       `gorm:"not null" json:"old_total"`
	NewTotal        int       `gorm:"not null" json:"new_total"`
	Delta           int       `gorm:"not null" json:"delta"`
	WeeksBefore     string    `gorm:"type:jsonb" json:"weeks_before"` // per-week values prior to adjustment
	WeeksAfter      string    `gorm:"type:jsonb" json:"weeks_after"`  // per-week values after adjustment
	Confidence      float64   `gorm:"type:decimal(5,2);not null" json:"confidence"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for TrendAdjustment
func (TrendAdjustment) TableName() string {
	return "trend_adjustments"
}

// Execution statuses
const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

// IngestionExecution is the audit trail for one batch run. Created with
// status running at run start, updated exactly once at run end, retained
// indefinitely.
type IngestionExecution struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Status         string     `gorm:"size:20;not null;index" json:"status"` // running, completed, failed
	SourceDocument string     `gorm:"size:200" json:"source_document"`
	StartedAt      time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`

	RecordsReceived   int    `json:"records_received"`
	RecordsProcessed  int    `json:"records_processed"`
	RecordsInserted   int    `json:"records_inserted"`
	RecordsUpdated    int    `json:"records_updated"`
	RecordsSkipped    int    `json:"records_skipped"`
	AnomaliesDetected int    `json:"anomalies_detected"`
	DocumentErrors    int    `json:"document_errors"`
	ErrorMessage      string `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName specifies the table name for IngestionExecution
func (IngestionExecution) TableName() string {
	return "ingestion_executions"
}

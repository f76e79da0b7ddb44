package snapshots

import (
	"fmt"
	"time"

	"boxoffice-pulse/database"
	models "boxoffice-pulse/database/models_pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles database operations for sales snapshots, weekly pacing
// points and trend adjustment audit rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new snapshots repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// snapshotMeasureColumns are the columns replaced when the same
// (performance_code, as_of_date) key is written again. The key columns and
// created_at are deliberately absent: a re-submitted snapshot must be a
// no-op in effect, never a duplicate insert.
var snapshotMeasureColumns = []string{
	"fixed_count", "flex_count", "single_count", "reserved_count", "total_count",
	"fixed_revenue", "flex_revenue", "single_revenue", "reserved_revenue",
	"subtotal_revenue", "total_revenue",
	"available_seats", "capacity_pct", "budget_pct",
	"avg_price_fixed", "avg_price_flex", "avg_price_single",
	"provenance",
}

// UpsertSnapshot writes a snapshot row idempotently on the
// (performance_code, as_of_date) natural key and returns the stored row,
// including the ID assigned on first insert.
func (r *Repository) UpsertSnapshot(snap *models.SalesSnapshot) (*models.SalesSnapshot, error) {
	snap.AsOfDate = truncateToDay(snap.AsOfDate)

	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "performance_code"}, {Name: "as_of_date"}},
		DoUpdates: clause.AssignmentColumns(snapshotMeasureColumns),
	}).Create(snap).Error
	if err != nil {
		return nil, database.WrapDBError("UpsertSnapshot", err)
	}

	// On a conflicting write GORM does not refresh the ID, so read the row
	// back by key; the adjustment audit trail references it.
	stored, err := r.GetByKey(snap.PerformanceCode, snap.AsOfDate)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, database.WrapDBError("UpsertSnapshot",
			fmt.Errorf("row vanished for %s @ %s",
				snap.PerformanceCode, snap.AsOfDate.Format("2006-01-02")))
	}
	return stored, nil
}

// GetByKey retrieves the snapshot for one (performance code, as-of date)
// pair. Returns nil without error when absent.
func (r *Repository) GetByKey(code string, asOf time.Time) (*models.SalesSnapshot, error) {
	var snap models.SalesSnapshot
	err := r.db.
		Where("performance_code = ? AND as_of_date = ?", code, truncateToDay(asOf)).
		First(&snap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapDBError("GetByKey", err)
	}
	return &snap, nil
}

// GetLatestBefore retrieves the most recent snapshot dated at or before the
// given as-of date, the aggregate a record of that date reconciles against.
// Snapshots dated later are invisible: a late-arriving or replayed document
// must never diff against state that postdates it. Returns nil without
// error when no snapshot that old exists.
func (r *Repository) GetLatestBefore(code string, asOf time.Time) (*models.SalesSnapshot, error) {
	var snap models.SalesSnapshot
	err := r.db.
		Where("performance_code = ? AND as_of_date <= ?", code, truncateToDay(asOf)).
		Order("as_of_date DESC").
		First(&snap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapDBError("GetLatestBefore", err)
	}
	return &snap, nil
}

// GetWeeklySeries retrieves a performance's pacing curve ordered from the
// farthest week out down to week 0.
func (r *Repository) GetWeeklySeries(code string) ([]models.WeeklySalesPoint, error) {
	var points []models.WeeklySalesPoint
	err := r.db.
		Where("performance_code = ?", code).
		Order("weeks_out DESC").
		Find(&points).Error
	if err != nil {
		return nil, database.WrapDBError("GetWeeklySeries", err)
	}
	return points, nil
}

// UpsertWeeklyPoint writes one pacing point idempotently on the
// (performance_code, weeks_out) natural key.
func (r *Repository) UpsertWeeklyPoint(point *models.WeeklySalesPoint) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "performance_code"}, {Name: "weeks_out"}},
		DoUpdates: clause.AssignmentColumns([]string{"tickets", "source"}),
	}).Create(point).Error
	if err != nil {
		return database.WrapDBError("UpsertWeeklyPoint", err)
	}
	return nil
}

// SaveAdjustment appends a trend adjustment audit row. Audit rows are never
// updated or deleted.
func (r *Repository) SaveAdjustment(adj *models.TrendAdjustment) error {
	if err := r.db.Create(adj).Error; err != nil {
		return database.WrapDBError("SaveAdjustment", err)
	}
	return nil
}

// truncateToDay drops the time component; snapshot keys are date-only.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

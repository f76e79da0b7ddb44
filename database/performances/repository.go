package performances

import (
	"time"

	"boxoffice-pulse/database"
	models "boxoffice-pulse/database/models_pkg"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository handles database operations for the canonical performance set
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new performances repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByCode retrieves a performance by its box-office code.
// Returns nil without error when the code is unknown.
func (r *Repository) GetByCode(code string) (*models.Performance, error) {
	var perf models.Performance
	err := r.db.Where("code = ?", code).First(&perf).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, database.WrapDBError("GetByCode", err)
	}
	return &perf, nil
}

// ListCodes returns the canonical set of known performance codes.
// Incoming report rows whose code is not in this set are skipped by
// the batch controller.
func (r *Repository) ListCodes() ([]string, error) {
	var codes []string
	err := r.db.Model(&models.Performance{}).
		Order("code ASC").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, database.WrapDBError("ListCodes", err)
	}
	return codes, nil
}

// EnsureStub inserts a minimal performance record for a code first observed
// by this ingestion path. Re-inserting an existing code is a no-op.
func (r *Repository) EnsureStub(code, title string, startsAt time.Time) error {
	if code == "" {
		return database.NewValidationError("code", "performance code is required")
	}
	stub := &models.Performance{
		Code:     code,
		Title:    title,
		StartsAt: startsAt,
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(stub).Error
	if err != nil {
		return database.WrapDBError("EnsureStub", err)
	}
	return nil
}

// UpdateMetadata updates the rarely-changing descriptive fields of a
// performance. Sales measures never live on this table.
func (r *Repository) UpdateMetadata(code string, updates map[string]interface{}) error {
	result := r.db.Model(&models.Performance{}).
		Where("code = ?", code).
		Updates(updates)
	if result.Error != nil {
		return database.WrapDBError("UpdateMetadata", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NewNotFoundErrorWithID("performance", code)
	}
	return nil
}

package executions

import (
	"time"

	"boxoffice-pulse/database"
	models "boxoffice-pulse/database/models_pkg"

	"gorm.io/gorm"
)

// Repository handles database operations for ingestion execution audit rows
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new executions repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Begin records the start of a batch run and returns the open execution row.
func (r *Repository) Begin(sourceDocument string) (*models.IngestionExecution, error) {
	exec := &models.IngestionExecution{
		Status:         models.ExecutionRunning,
		SourceDocument: sourceDocument,
		StartedAt:      time.Now().UTC(),
	}
	if err := r.db.Create(exec).Error; err != nil {
		return nil, database.WrapDBError("Begin", err)
	}
	return exec, nil
}

// Finish closes an execution row with its final status and counters.
func (r *Repository) Finish(exec *models.IngestionExecution, status, errorMessage string) error {
	now := time.Now().UTC()
	exec.Status = status
	exec.FinishedAt = &now
	exec.ErrorMessage = errorMessage
	if err := r.db.Save(exec).Error; err != nil {
		return database.WrapDBError("Finish", err)
	}
	return nil
}

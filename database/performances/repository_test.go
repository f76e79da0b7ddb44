package performances

import (
	"errors"
	"testing"
	"time"

	"boxoffice-pulse/database"
)

// Validation runs before any statement is issued, so no connection is
// needed to exercise it.
func TestEnsureStubRejectsEmptyCode(t *testing.T) {
	repo := NewRepository(nil)

	err := repo.EnsureStub("", "Untitled", time.Time{})
	if err == nil {
		t.Fatal("expected a validation error for an empty code")
	}
	var vErr *database.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected *database.ValidationError, got %T", err)
	}
	if vErr.Field != "code" {
		t.Errorf("field = %q, want code", vErr.Field)
	}
}

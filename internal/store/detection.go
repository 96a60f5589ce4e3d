package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/scout-api/internal/domain"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrDetectionNotFound indicates that the requested detection record
	// does not exist in the store.
	ErrDetectionNotFound = fmt.Errorf("%w: detection record", ErrNotFound)
)

// DetectionStore defines the interface for persisting detection history.
// Queue state is never persisted; only completed runs are recorded.
type DetectionStore interface {
	// SaveDetection persists a completed detection record.
	SaveDetection(ctx context.Context, record *domain.DetectionRecord) error

	// GetDetection retrieves a single record by ID.
	// Returns ErrDetectionNotFound if no record exists with the given ID.
	GetDetection(ctx context.Context, id uuid.UUID) (*domain.DetectionRecord, error)

	// ListRecent returns up to limit records, newest first.
	ListRecent(ctx context.Context, limit int) ([]*domain.DetectionRecord, error)
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/phrazzld/scout-api/internal/domain"
	"github.com/phrazzld/scout-api/internal/platform/logger"
	"github.com/phrazzld/scout-api/internal/store"
)

// DetectionStore implements the store.DetectionStore interface using PostgreSQL
type DetectionStore struct {
	db store.DBTX
}

// NewDetectionStore creates a new DetectionStore
func NewDetectionStore(db store.DBTX) *DetectionStore {
	return &DetectionStore{
		db: db,
	}
}

// SaveDetection persists a completed detection record. Detections are
// stored as a JSONB document alongside the run metadata.
func (s *DetectionStore) SaveDetection(ctx context.Context, record *domain.DetectionRecord) error {
	log := logger.FromContext(ctx)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	detectionsJSON, err := json.Marshal(record.Detections)
	if err != nil {
		return fmt.Errorf("failed to marshal detections to JSON: %w", err)
	}

	query := `
		INSERT INTO detections (id, mime_type, prompt, detections, latency_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.MimeType,
		record.Prompt,
		detectionsJSON,
		record.LatencyMs,
		record.CreatedAt,
	)
	if err != nil {
		log.Error("failed to save detection record",
			"record_id", record.ID,
			"error", err)
		return fmt.Errorf("failed to save detection record: %w", err)
	}

	return nil
}

// GetDetection retrieves a single record by ID.
func (s *DetectionStore) GetDetection(ctx context.Context, id uuid.UUID) (*domain.DetectionRecord, error) {
	query := `
		SELECT id, mime_type, prompt, detections, latency_ms, created_at
		FROM detections
		WHERE id = $1
	`

	record, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDetectionNotFound
		}
		return nil, fmt.Errorf("failed to get detection record: %w", err)
	}

	return record, nil
}

// ListRecent returns up to limit records, newest first.
func (s *DetectionStore) ListRecent(ctx context.Context, limit int) ([]*domain.DetectionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, mime_type, prompt, detections, latency_ms, created_at
		FROM detections
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list detection records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.DetectionRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan detection record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate detection records: %w", err)
	}

	return records, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.DetectionRecord, error) {
	var (
		record         domain.DetectionRecord
		detectionsJSON []byte
	)

	err := row.Scan(
		&record.ID,
		&record.MimeType,
		&record.Prompt,
		&detectionsJSON,
		&record.LatencyMs,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(detectionsJSON, &record.Detections); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detections: %w", err)
	}

	return &record, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/scout-api/internal/config"
	"github.com/phrazzld/scout-api/internal/detection"
	"github.com/phrazzld/scout-api/internal/domain"
	"github.com/phrazzld/scout-api/internal/pacing"
	"github.com/phrazzld/scout-api/internal/retry"
	"github.com/phrazzld/scout-api/internal/store"
)

// ErrHistoryDisabled is returned by history queries when the service was
// built without a detection store.
var ErrHistoryDisabled = errors.New("detection history is disabled")

// DetectionService governs access to the vision detector. Every call is
// admitted through the pacing queue (bounded concurrency, floor-paced
// starts) and each individual attempt is separately paced: the retrier
// wraps the submit-and-wait, so a retried attempt rejoins the queue like
// any other caller.
type DetectionService struct {
	detector detection.Detector
	queue    *pacing.Queue[[]domain.Detection]
	retryCfg retry.Config

	// history is optional; nil disables persistence entirely.
	history store.DetectionStore

	logger *slog.Logger
}

// NewDetectionService creates a DetectionService with the given governor
// tunables. The history store may be nil.
func NewDetectionService(
	detector detection.Detector,
	cfg config.GovernorConfig,
	history store.DetectionStore,
	logger *slog.Logger,
) (*DetectionService, error) {
	if detector == nil {
		return nil, errors.New("detector cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	queue, err := pacing.New[[]domain.Detection](pacing.Config{
		Concurrency: cfg.Concurrency,
		MinInterval: time.Duration(cfg.MinIntervalMs) * time.Millisecond,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create pacing queue: %w", err)
	}

	retryCfg := retry.Config{
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   time.Duration(cfg.BaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMs) * time.Millisecond,
		JitterRatio: cfg.JitterRatio,
		// The governor core never logs; observability lives here, in the
		// per-attempt observer.
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Warn("retrying detection call",
				"attempt", attempt,
				"delay", delay.String(),
				"error", err)
		},
	}

	return &DetectionService{
		detector: detector,
		queue:    queue,
		retryCfg: retryCfg,
		history:  history,
		logger:   logger,
	}, nil
}

// Detect runs one governed detection: the detector call is submitted to
// the pacing queue, its transient failures are retried with backoff (each
// attempt re-queued), and the completed run is recorded to history when a
// store is configured. Terminal errors reach the caller unchanged.
func (s *DetectionService) Detect(
	ctx context.Context,
	input detection.ImageInput,
) (*domain.DetectionRecord, error) {
	start := time.Now()

	detections, err := retry.Do(ctx, func(ctx context.Context) ([]domain.Detection, error) {
		handle := s.queue.Submit(func(jobCtx context.Context) ([]domain.Detection, error) {
			return s.detector.Detect(jobCtx, input)
		})
		return handle.Wait(ctx)
	}, s.retryCfg)
	if err != nil {
		return nil, err
	}

	record, err := domain.NewDetectionRecord(input.MimeType, input.Prompt, detections, time.Since(start))
	if err != nil {
		return nil, err
	}

	if s.history != nil {
		// History is best-effort: a storage failure must not fail a
		// detection the caller already paid for.
		if saveErr := s.history.SaveDetection(ctx, record); saveErr != nil {
			s.logger.Error("failed to save detection record",
				"record_id", record.ID,
				"error", saveErr)
		}
	}

	s.logger.Info("detection completed",
		"record_id", record.ID,
		"detections", len(record.Detections),
		"latency_ms", record.LatencyMs)

	return record, nil
}

// RecentDetections returns the most recent detection records, newest
// first. Returns ErrHistoryDisabled when no store is configured.
func (s *DetectionService) RecentDetections(
	ctx context.Context,
	limit int,
) ([]*domain.DetectionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.ListRecent(ctx, limit)
}

// Close shuts down the pacing queue. In-flight detections finish; queued
// ones are rejected.
func (s *DetectionService) Close() {
	s.queue.Close()
}

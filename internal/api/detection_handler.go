package api

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/scout-api/internal/api/shared"
	"github.com/phrazzld/scout-api/internal/detection"
	"github.com/phrazzld/scout-api/internal/domain"
	"github.com/phrazzld/scout-api/internal/service"
)

// defaultHistoryLimit bounds GET /api/detections when no limit is given.
const defaultHistoryLimit = 20

// DetectionService is the slice of the service layer the handler needs.
type DetectionService interface {
	Detect(ctx context.Context, input detection.ImageInput) (*domain.DetectionRecord, error)
	RecentDetections(ctx context.Context, limit int) ([]*domain.DetectionRecord, error)
}

// DetectionHandler handles detection-related HTTP requests
type DetectionHandler struct {
	service   DetectionService
	validator *validator.Validate
	logger    *slog.Logger
}

// NewDetectionHandler creates a new DetectionHandler
func NewDetectionHandler(svc DetectionService, logger *slog.Logger) *DetectionHandler {
	return &DetectionHandler{
		service:   svc,
		validator: validator.New(),
		logger:    logger,
	}
}

// CreateDetection handles POST /api/detections requests. The call is
// synchronous: it blocks while the governed detection runs and responds
// with the detected objects.
func (h *DetectionHandler) CreateDetection(w http.ResponseWriter, r *http.Request) {
	var req CreateDetectionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	imageData, err := base64.StdEncoding.DecodeString(req.ImageData)
	if err != nil || len(imageData) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "image_data must be non-empty base64")
		return
	}

	record, err := h.service.Detect(r.Context(), detection.ImageInput{
		Data:     imageData,
		MimeType: req.MimeType,
		Prompt:   req.Prompt,
	})
	if err != nil {
		h.respondDetectError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}

// ListDetections handles GET /api/detections requests, returning recent
// history newest first. The optional ?limit= query parameter caps the
// result size.
func (h *DetectionHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	records, err := h.service.RecentDetections(r.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrHistoryDisabled) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Detection history is not enabled")
			return
		}
		h.logger.Error("failed to list detections", "error", err)
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list detections")
		return
	}

	responses := make([]DetectionResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, recordToResponse(record))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// respondDetectError maps a detection failure to a sanitized HTTP
// response. The full error is logged server-side only.
func (h *DetectionHandler) respondDetectError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("detection failed", "error", err)

	switch {
	case errors.Is(err, detection.ErrEmptyImage):
		shared.RespondWithError(w, r, http.StatusBadRequest, "Image data is required")
	case errors.Is(err, detection.ErrContentBlocked):
		shared.RespondWithError(w, r, http.StatusUnprocessableEntity,
			"The image was rejected by the vision model's safety filters")
	case errors.Is(err, detection.ErrInvalidResponse):
		shared.RespondWithError(w, r, http.StatusBadGateway,
			"The vision model returned an unusable response")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// The client went away or timed out; 499-style semantics, but
		// stick to standard codes.
		shared.RespondWithError(w, r, http.StatusGatewayTimeout, "Detection timed out")
	default:
		// Transient failures that exhausted their retry budget land here
		// along with anything unexpected.
		shared.RespondWithError(w, r, http.StatusServiceUnavailable,
			"Detection is temporarily unavailable, try again later")
	}
}

package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BoundingBox locates a detected object within an image. Coordinates are
// normalized to the 0–1000 range used by the Gemini spatial-understanding
// response format, with the origin at the top-left corner.
type BoundingBox struct {
	YMin int `json:"y_min"`
	XMin int `json:"x_min"`
	YMax int `json:"y_max"`
	XMax int `json:"x_max"`
}

// Validate checks that the box coordinates are in range and not inverted.
func (b BoundingBox) Validate() error {
	if b.YMin < 0 || b.XMin < 0 || b.YMax > 1000 || b.XMax > 1000 {
		return ErrInvalidBoundingBox
	}
	if b.YMin > b.YMax || b.XMin > b.XMax {
		return ErrInvalidBoundingBox
	}
	return nil
}

// Detection is a single labeled object found in an image.
type Detection struct {
	Label      string      `json:"label"`
	Box        BoundingBox `json:"box"`
	Confidence float64     `json:"confidence,omitempty"`
}

// Detection-specific validation errors
var (
	// ErrDetectionLabelEmpty is returned when a detection has no label.
	ErrDetectionLabelEmpty = errors.New("detection label cannot be empty")
)

// Validate checks if the Detection has valid data.
func (d Detection) Validate() error {
	if d.Label == "" {
		return ErrDetectionLabelEmpty
	}
	return d.Box.Validate()
}

// DetectionRecord is one completed detection run: the input's shape, the
// prompt used, and the objects found. Image bytes themselves are not
// retained.
type DetectionRecord struct {
	ID         uuid.UUID   `json:"id"`
	MimeType   string      `json:"mime_type"`
	Prompt     string      `json:"prompt"`
	Detections []Detection `json:"detections"`
	LatencyMs  int64       `json:"latency_ms"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewDetectionRecord creates a DetectionRecord for a completed run. It
// generates a new UUID for the record and stamps the creation time.
// Returns an error if validation fails.
func NewDetectionRecord(
	mimeType string,
	prompt string,
	detections []Detection,
	latency time.Duration,
) (*DetectionRecord, error) {
	record := &DetectionRecord{
		ID:         uuid.New(),
		MimeType:   mimeType,
		Prompt:     prompt,
		Detections: detections,
		LatencyMs:  latency.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the DetectionRecord has valid data.
func (r *DetectionRecord) Validate() error {
	if r.ID == uuid.Nil {
		return ErrInvalidID
	}

	if !strings.HasPrefix(r.MimeType, "image/") {
		return ErrInvalidMimeType
	}

	for _, d := range r.Detections {
		if err := d.Validate(); err != nil {
			return err
		}
	}

	return nil
}

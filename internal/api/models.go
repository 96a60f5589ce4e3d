package api

import (
	"time"

	"github.com/phrazzld/scout-api/internal/domain"
)

// CreateDetectionRequest defines the payload for the detection endpoint.
type CreateDetectionRequest struct {
	// ImageData is the base64-encoded image.
	ImageData string `json:"image_data" validate:"required,base64"`

	// MimeType describes the encoded image, e.g. "image/png".
	MimeType string `json:"mime_type"  validate:"required,startswith=image/"`

	// Prompt optionally narrows what the model should look for.
	Prompt string `json:"prompt,omitempty" validate:"omitempty,max=500"`
}

// BoundingBoxResponse mirrors domain.BoundingBox in API responses.
type BoundingBoxResponse struct {
	YMin int `json:"y_min"`
	XMin int `json:"x_min"`
	YMax int `json:"y_max"`
	XMax int `json:"x_max"`
}

// DetectionItemResponse is one detected object.
type DetectionItemResponse struct {
	Label      string              `json:"label"`
	Box        BoundingBoxResponse `json:"box"`
	Confidence float64             `json:"confidence,omitempty"`
}

// DetectionResponse represents the response data for a detection run.
type DetectionResponse struct {
	ID         string                  `json:"id"`
	MimeType   string                  `json:"mime_type"`
	Prompt     string                  `json:"prompt,omitempty"`
	Detections []DetectionItemResponse `json:"detections"`
	LatencyMs  int64                   `json:"latency_ms"`
	CreatedAt  time.Time               `json:"created_at"`
}

// recordToResponse converts a domain.DetectionRecord to a DetectionResponse.
func recordToResponse(record *domain.DetectionRecord) DetectionResponse {
	items := make([]DetectionItemResponse, 0, len(record.Detections))
	for _, d := range record.Detections {
		items = append(items, DetectionItemResponse{
			Label: d.Label,
			Box: BoundingBoxResponse{
				YMin: d.Box.YMin,
				XMin: d.Box.XMin,
				YMax: d.Box.YMax,
				XMax: d.Box.XMax,
			},
			Confidence: d.Confidence,
		})
	}

	return DetectionResponse{
		ID:         record.ID.String(),
		MimeType:   record.MimeType,
		Prompt:     record.Prompt,
		Detections: items,
		LatencyMs:  record.LatencyMs,
		CreatedAt:  record.CreatedAt,
	}
}

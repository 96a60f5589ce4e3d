package detection

import (
	"context"

	"github.com/phrazzld/scout-api/internal/domain"
)

// ImageInput is the raw material for one detection call: the image bytes,
// their MIME type, and an optional caller-supplied prompt override.
type ImageInput struct {
	// Data is the raw (decoded) image bytes.
	Data []byte

	// MimeType describes Data, e.g. "image/png".
	MimeType string

	// Prompt, when non-empty, replaces the detector's default instruction.
	Prompt string
}

// Detector defines the interface for locating objects in images. This
// interface is the boundary between the application core and the external
// vision model service.
type Detector interface {
	// Detect analyzes the image and returns the objects found in it.
	// An image with no recognizable objects yields an empty slice, not an
	// error.
	Detect(ctx context.Context, input ImageInput) ([]domain.Detection, error)
}

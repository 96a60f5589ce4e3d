package detection

import "errors"

// Common errors returned by the detection package
var (
	// ErrDetectionFailed is returned when detection fails for any general reason
	ErrDetectionFailed = errors.New("failed to detect objects in image")

	// ErrInvalidResponse is returned when the model response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from vision model")

	// ErrContentBlocked is returned when the model blocks the content due to safety filters
	ErrContentBlocked = errors.New("content blocked by vision model safety filters")

	// ErrInvalidConfig is returned when the detector configuration is invalid
	ErrInvalidConfig = errors.New("invalid detector configuration")

	// ErrEmptyImage is returned when Detect is called without image data
	ErrEmptyImage = errors.New("image data cannot be empty")
)

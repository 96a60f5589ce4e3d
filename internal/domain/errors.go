// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidFormat is returned when data is not in the expected format.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrEmptyImage is returned when a detection request carries no image data.
	ErrEmptyImage = errors.New("image data cannot be empty")

	// ErrInvalidMimeType is returned when an image's MIME type is missing
	// or not an image type.
	ErrInvalidMimeType = errors.New("invalid image MIME type")

	// ErrInvalidBoundingBox is returned when a detection's bounding box
	// coordinates are out of range or inverted.
	ErrInvalidBoundingBox = errors.New("invalid bounding box")
)

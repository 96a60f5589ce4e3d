package gemini

import (
	"errors"

	"google.golang.org/genai"
)

// remoteError attaches the HTTP status of a failed Gemini call to the
// wrapped error. The retry layer probes for StatusCode through the error
// chain without this package's involvement.
type remoteError struct {
	status int
	err    error
}

func (e *remoteError) Error() string {
	return e.err.Error()
}

// StatusCode returns the HTTP status reported by the API.
func (e *remoteError) StatusCode() int {
	return e.status
}

func (e *remoteError) Unwrap() error {
	return e.err
}

// wrapAPIError decorates a genai API error with its status code. Errors
// that carry no API status (transport failures and the like) pass through
// unchanged; their messages still feed the retry layer's classification.
func wrapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &remoteError{status: apiErr.Code, err: err}
	}
	return err
}

package shared

import (
	"encoding/json"
	"errors"
	"net/http"
)

// maxRequestBody caps request bodies at 8 MiB, enough for a
// base64-encoded image.
const maxRequestBody = 8 << 20

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON decodes the request body into dst, enforcing the body size
// limit and rejecting trailing garbage after the JSON value.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return ErrEmptyBody
	}

	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	if err := decoder.Decode(dst); err != nil {
		return err
	}

	// A second token means the body held more than one JSON value.
	if decoder.More() {
		return errors.New("request body must contain a single JSON object")
	}

	return nil
}

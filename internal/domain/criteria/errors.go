package criteria

import "errors"

// ErrMalformedPayload is returned when a submission cannot be decoded.
var ErrMalformedPayload = errors.New("malformed payload")

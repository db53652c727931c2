package gemini

import "errors"

// Errors returned by the Gemini script generator.
var (
	// ErrInvalidConfig indicates the generator was constructed with missing
	// or invalid configuration.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrEmptyInput indicates a generation method was called with no usable
	// input text.
	ErrEmptyInput = errors.New("empty input")

	// ErrInvalidResponse indicates the model returned output that could not
	// be parsed into the expected structure. Not retried.
	ErrInvalidResponse = errors.New("invalid model response")

	// ErrContentBlocked indicates the model refused the request on safety
	// grounds. Not retried.
	ErrContentBlocked = errors.New("content blocked by safety filters")

	// ErrTransientFailure indicates the API call failed in a way that may
	// succeed on retry, and all retries were exhausted.
	ErrTransientFailure = errors.New("transient gemini failure")
)

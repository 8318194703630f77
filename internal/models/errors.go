package models

import "errors"

// Engine error taxonomy. Handlers map these to HTTP statuses; ownership
// violations and missing records share ErrTaskNotFound so callers cannot
// probe for other users' task IDs.
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrInvalidCategory    = errors.New("category not found")
	ErrDepthLimitExceeded = errors.New("maximum task depth exceeded")
	ErrCircularReference  = errors.New("task cannot be its own ancestor")
	ErrQuotaExceeded      = errors.New("active task limit reached")
	ErrInvalidProgress    = errors.New("completion percentage must be 0-100")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleTooLong       = errors.New("title exceeds maximum length")
)

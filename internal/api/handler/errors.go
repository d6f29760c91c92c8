package handler

import "github.com/LeGioNSoftware/MonkeyPaw/internal/api/apierr"

// Re-exported for handler convenience
var (
	WriteError             = apierr.WriteError
	NewInvalidRequestError = apierr.NewInvalidRequestError
)

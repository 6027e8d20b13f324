package offlinesync

import "errors"

var ErrBatchTooLarge = errors.New("too many attempts in one batch")

// Per-item error codes.
const (
	codeValidation  = "VALIDATION_ERROR"
	codeUnknownTest = "TEST_NOT_FOUND"
	codeInternal    = "INTERNAL_ERROR"
)

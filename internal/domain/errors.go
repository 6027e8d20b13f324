package domain

import "errors"

// ErrTokenAlreadyRevoked is returned by storage when a compare-and-swap on
// revoked_at finds the token already revoked by a concurrent caller.
var ErrTokenAlreadyRevoked = errors.New("token already revoked")

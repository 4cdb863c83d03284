package cqrs

import "errors"

// ErrForbidden is returned when the requesting user does not own the account.
var ErrForbidden = errors.New("forbidden")

package apperr

import "errors"

var (
	ErrMissingRegion   = errors.New("missing region")
	ErrDuplicateRegion = errors.New("duplicate region")
	ErrDrift           = errors.New("layout drift")
)

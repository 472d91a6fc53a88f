package errors

import "errors"

var (
	ErrInvalidRatingInput = errors.New("invalid rating input")
	ErrSymbolNotFound     = errors.New("rating symbol not found")
)

package core

import "errors"

var (
	ErrInvalidTicker       = errors.New("invalid ticker")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrMissingObservation  = errors.New("missing observation")
	ErrUnsortedHistory     = errors.New("history is not strictly increasing by date")
	ErrInvalidWindow       = errors.New("window must be positive")
	ErrUnknownField        = errors.New("unknown field")
)

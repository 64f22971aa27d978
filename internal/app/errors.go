package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrStart        = errors.New("failed to start rating service")
	ErrNotStarted   = errors.New("rating service not started")
	ErrInvalidInput = errors.New("invalid input")
	ErrRankNotFound = errors.New("rank not found")
)

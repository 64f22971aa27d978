package feed

import "errors"

// Sentinel kinds for feed errors.
var (
	ErrLoadFeed          = errors.New("failed to load feed")
	ErrUnsupportedFormat = errors.New("unsupported feed format")
	ErrInvalidRecord     = errors.New("invalid chart record")
)

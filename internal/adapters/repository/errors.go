package repository

import "errors"

// Sentinel kinds for song database repository errors.
var (
	ErrNotFound           = errors.New("song database not cached")
	ErrUnsupportedVersion = errors.New("unsupported game version")
	ErrUnsupportedRegion  = errors.New("unsupported region")
	ErrBuildFailed        = errors.New("song database build failed")
	ErrClosed             = errors.New("repository closed")
)

package songdb

import "errors"

// Sentinel kinds for song database errors.
var (
	ErrInvalidSong = errors.New("invalid song properties")
	ErrStageFailed = errors.New("song database stage failed")
)

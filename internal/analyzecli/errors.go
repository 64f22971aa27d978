package analyzecli

import "errors"

var (
	ErrNoRecords = errors.New("records file is required")
	ErrRemote    = errors.New("remote analysis failed")
)

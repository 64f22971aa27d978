package rank

import "errors"

// Sentinel kinds for rank table errors.
var (
	ErrMalformedTable = errors.New("malformed rank table")
)

package domain

import "errors"

// ErrStreamNotFound is the repository-level miss; the service layer
// translates it into nil/false sentinels at the public boundary.
var ErrStreamNotFound = errors.New("stream not found")

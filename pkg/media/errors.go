package media

import "errors"

// ErrResourceNotFound is returned when a named media asset cannot be located.
var ErrResourceNotFound = errors.New("media resource not found")

package errs

import "errors"

var (
	ErrNoSpace     = errors.New("region: no space")
	ErrBadArgument = errors.New("region: bad argument")
	ErrClosed      = errors.New("region: closed")
	ErrCorrupt     = errors.New("region: corrupt")
)

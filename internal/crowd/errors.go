package crowd

import "errors"

// ErrInvalidCoordinate is returned for out-of-range or non-finite lat/lng
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// ErrInvalidArgument is returned for arguments outside their domain, such as a non-positive count
var ErrInvalidArgument = errors.New("invalid argument")

package database

import "errors"

// ErrCacheClosed is returned when the cache backend has been closed
var ErrCacheClosed = errors.New("route cache closed")

package pool

import "errors"

// ErrInvalidConfiguration is returned by a constructor when the requested
// parameters can never produce a usable pool: zero workers for a fixed
// pool, a zero or inverted [min, max] bound for an elastic pool, or a
// negative idle timeout.
var ErrInvalidConfiguration = errors.New("pool: invalid configuration")

// ErrShutdownInProgress is returned by Submit once Close has begun.
var ErrShutdownInProgress = errors.New("pool: shutdown in progress")

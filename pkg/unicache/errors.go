package unicache

import "errors"

var (
	// ErrInvalidConfig is returned when a cache is created with an
	// unusable configuration.
	ErrInvalidConfig = errors.New("unicache: invalid config")

	// ErrCacheUnavailable is returned when a fixed registry instance
	// cannot be produced even after reinitialization.
	ErrCacheUnavailable = errors.New("unicache: cache instance unavailable")
)

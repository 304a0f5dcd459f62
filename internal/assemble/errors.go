package assemble

import "errors"

var (
	// ErrStoreUnavailable wraps asset-store fetch failures. The caller
	// owns retry policy; nothing is retried here.
	ErrStoreUnavailable = errors.New("asset store unavailable")

	// ErrAborted is returned when the caller's context is cancelled
	// before assembly completes. No partial context is ever returned
	// alongside it.
	ErrAborted = errors.New("assembly aborted")
)

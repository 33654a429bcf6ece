package errors

// Generic companion SDK errors
var (
	// 11xx - cache store errors
	ErrCacheStorageUnavailable = New(1101, "persistent storage is unavailable")
	ErrCacheWriteFailed        = Newf(1102, "failed to write cache entry for key %s")
	ErrCacheSerialization      = Newf(1103, "failed to serialize cache payload for key %s")

	// 12xx - background sync errors
	ErrSyncFetchFailed   = Newf(1201, "background refresh for table %s failed after %d attempts")
	ErrSyncStaleSequence = Newf(1202, "discarded refresh result for table %s, a fresher result was already applied")

	// 13xx - proxy client errors
	ErrProxyRequestFailed  = Newf(1301, "request to the companion proxy failed: %s")
	ErrProxyBadResponse    = Newf(1302, "companion proxy returned unexpected status %d for table %s")
	ErrProxySessionExpired = New(1303, "companion proxy session token is expired")
)

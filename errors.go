package ytanalyzer

import (
	"ytanalyzer/internal/catalog"
	"ytanalyzer/internal/credpool"
	"ytanalyzer/internal/enumerate"
	"ytanalyzer/internal/retry"
	"ytanalyzer/internal/storage"
	"ytanalyzer/internal/youtube"
)

// Error handling types exported for library users.
//
// All error types support the standard error handling patterns:
//
// Using errors.Is() for sentinel errors:
//
//	if errors.Is(err, ytanalyzer.ErrChannelNotFound) {
//		fmt.Println("Channel not found")
//	}
//
// Using errors.As() for wrapped errors:
//
//	var walkErr *ytanalyzer.WalkError
//	if errors.As(err, &walkErr) {
//		fmt.Printf("%s failed on page %d: %v\n", walkErr.Walker, walkErr.Page, walkErr.Err)
//	}

// Type aliases for convenient error handling.
type (
	// WalkError reports a listing or search walk that ended on a remote
	// failure other than quota.
	WalkError = enumerate.WalkError
	// MalformedRecordError describes a video the API returned without the
	// fields a record needs.
	MalformedRecordError = catalog.MalformedRecordError
	// APIError wraps a failed remote call.
	APIError = youtube.APIError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrChannelNotFound indicates the YouTube channel does not exist.
	ErrChannelNotFound = youtube.ErrChannelNotFound
	// ErrQuotaExceeded indicates a key ran out of daily quota.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrInvalidURL indicates the channel reference could not be parsed.
	ErrInvalidURL = youtube.ErrInvalidURL

	ErrNoCredentials   = credpool.ErrNoCredentials
	ErrNoChannel       = enumerate.ErrNoChannel
	ErrRunInProgress   = enumerate.ErrRunInProgress
	ErrUnknownStrategy = enumerate.ErrUnknownStrategy

	// Storage errors
	// ErrNotFound indicates a session or credentials file was not found.
	ErrNotFound = storage.ErrNotFound
	// ErrStorageCorrupt indicates a file could not be decoded.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrUnsupportedVersion indicates a session written by a newer schema.
	ErrUnsupportedVersion = storage.ErrUnsupportedVersion
	// ErrLockTimeout indicates a timeout acquiring a file lock.
	ErrLockTimeout = storage.ErrLockTimeout
)

// IsQuotaError reports whether err is a credential-level quota rejection.
func IsQuotaError(err error) bool {
	return youtube.IsQuotaError(err)
}

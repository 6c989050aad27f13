package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Store errors
const (
	// ErrCodeStoreCorrupt indicates persisted stage records could not be decoded.
	ErrCodeStoreCorrupt ErrorCode = "STORE_CORRUPT"
	// ErrCodeStoreIO indicates a read or write against the stage log failed.
	ErrCodeStoreIO ErrorCode = "STORE_IO"
	// ErrCodeStageNotFound indicates the named stage has no persisted log.
	ErrCodeStageNotFound ErrorCode = "STAGE_NOT_FOUND"
)

// Mapping errors
const (
	// ErrCodeTransform indicates a per-record transform function failed.
	ErrCodeTransform ErrorCode = "TRANSFORM_FAILED"
	// ErrCodeSerialization indicates a value could not be encoded or decoded.
	ErrCodeSerialization ErrorCode = "SERIALIZATION_FAILED"
	// ErrCodeCanceled indicates an external cancellation stopped the run.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

// Collection errors
const (
	// ErrCodeInvalidStageName indicates a stage name is not filesystem-safe.
	ErrCodeInvalidStageName ErrorCode = "INVALID_STAGE_NAME"
	// ErrCodeDuplicateKey indicates two entries would share a record key.
	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"
	// ErrCodeInvalidKey indicates a record key that cannot be persisted.
	ErrCodeInvalidKey ErrorCode = "INVALID_KEY"
	// ErrCodeKeyNotFound indicates a key expected by a join is missing.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"
)

// External collaborators
const (
	// ErrCodeRemoteTransfer indicates an upload or download through the
	// remote storage collaborator failed.
	ErrCodeRemoteTransfer ErrorCode = "REMOTE_TRANSFER_FAILED"
	// ErrCodeInvalidConfig indicates configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTransform:      true,
	ErrCodeCanceled:       true,
	ErrCodeRemoteTransfer: true,
}

// IsRetryableCode returns true if re-running the stage can make progress
// past an error with this code. Transform failures and cancellations are
// retryable because completed records stay persisted; corrupt stores and
// serialization mismatches are not.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

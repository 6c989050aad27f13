// Package errors provides unified error handling for stagekit.
//
// All failures surfaced by the library are *AppError values carrying a
// machine-readable ErrorCode, a human-readable message, the stage (and
// where relevant the record key) that failed, and the underlying cause.
//
// The codes distinguish the failure classes that matter to callers of a
// resumable pipeline: an unreadable artifact store (STORE_CORRUPT), a
// bad encode/decode (SERIALIZATION_FAILED), a failed per-record
// transform (TRANSFORM_FAILED), and an external stop request
// (CANCELED). Transform failures and cancellations always leave the
// artifact store in a valid, reloadable partial state; re-running the
// same stage resumes from it.
package errors

// Package store implements the per-stage artifact log: a durable,
// append-mostly mapping from record keys to serialized values.
//
// Each stage owns one log file under the cache directory. Records are
// framed as JSON lines with base64-encoded value bytes, appended as new
// results arrive. The full log is loaded into an in-memory index when a
// store is opened; membership checks and reads never touch disk after
// that. Writing the same key twice is allowed and the later record wins
// on the next load.
//
// A truncated trailing record, the expected state after a crash
// mid-write, is dropped with a warning on load. Any other undecodable
// record is fatal and surfaces as STORE_CORRUPT.
package store

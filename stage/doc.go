// Package stage implements resumable, cached transformation stages over
// ordered keyed collections.
//
// A pipeline is a sequence of named stages. Each stage transforms a
// Collection and persists its output records to an append-only artifact
// file under the pipeline's cache directory, one file per stage. When a
// run is interrupted and restarted, a stage replays already-persisted
// records from its file and invokes the transform only for keys that
// have no persisted result, so completed work is never repeated.
//
// Caching is keyed by stage name and record key only. If the transform
// function itself changes between runs, stale cached results are still
// replayed; remove the stage's artifact file to force recomputation.
//
// Map runs a transform sequentially. AMap runs it with bounded
// concurrency, persisting each result the moment it completes while
// still producing output in input order. Filter, Sort, Limit, Join and
// FlatMap derive new in-memory collections without touching the cache.
package stage

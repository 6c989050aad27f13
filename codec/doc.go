// Package codec provides pluggable value serialization for stage
// records.
//
// A Codec[T] converts one record value to and from bytes; the artifact
// store never interprets those bytes. Each stage declares its codec at
// the call site, so the same cache directory can hold structured JSON
// stages next to opaque gob or raw binary stages.
//
// Provided codecs:
//
//   - JSON[T]: structured values via bytedance/sonic
//   - Gob[T]: opaque Go values via encoding/gob
//   - Bytes: raw []byte passthrough
//   - Text: raw string
package codec

// Package storage provides object storage abstractions with pluggable
// backends.
//
// stagekit's core never interprets remote objects: collections move
// whole stage logs through this interface as opaque byte streams when
// publishing results or seeding a cache from a previously published
// stage.
//
// # Backends
//
//   - storage/s3: Amazon S3 and S3-compatible storage
//   - storage/local: local filesystem storage for development/testing
//
// # Configuration
//
// Backend selection and settings are provided via Config:
//
//	storage:
//	  provider: "s3"
//	  bucket: "my-bucket"
//	  region: "us-east-1"
package storage

// Package logger provides structured logging for stagekit using zerolog.
//
// It supports multiple output formats (JSON, console), log level
// configuration, and component- or stage-scoped loggers with structured
// fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("store")
//	log.Info("stage loaded", logger.Fields(logger.FieldStage, "embed", "records", 42))
package logger

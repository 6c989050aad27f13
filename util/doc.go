// Package util provides small shared helpers for stagekit packages.
package util

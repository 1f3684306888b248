// Package observability provides structured logging and metrics for the
// SocialHub API.
//
// This package implements:
//   - Process logger construction (zap, json or console encoding)
//   - A dedicated "security" logger for access violations
//   - Prometheus counters for authentication and authorization outcomes
//
// Request ids come from chi's RequestID middleware and are attached to log
// lines by the callers.
package observability

// Package diag publishes and records boot events for diagnostics.
package diag

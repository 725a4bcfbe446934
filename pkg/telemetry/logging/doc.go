// Package logging configures structured logging for ollgate.
//
// Logs use log/slog with a JSON handler by default; raw API key values are
// never logged anywhere in the codebase, only rejection reasons and digest
// set sizes.
package logging

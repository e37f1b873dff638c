// Package logging builds the slog loggers used by the daemon and CLI, with a
// compact console handler for interactive use and a JSON handler for log
// shipping. Standardized field keys keep structured output greppable.
package logging

// Package convert wraps the external document conversion engine as a
// pollable, killable out-of-process job. The engine itself is opaque: the
// client only builds its argument list, watches for exit, and checks that the
// expected artifact was actually produced.
package convert

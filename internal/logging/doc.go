// Package logging provides opt-in file-based logging with rotation for
// inkwell. When the --debug flag is set, comprehensive logs are written to
// ~/.inkwell/logs/ for debugging and troubleshooting.
//
// Without --debug, logs at the configured level go to the configured log
// file (~/.inkwell/logs/server.log when none is set) and to stderr.
package logging

// Package omrxlog provides opt-in file-based logging with rotation for omrxctl.
// When the --debug flag is set, comprehensive logs are written to ~/.omrxctl/logs/
// for debugging and troubleshooting.
//
// By default (without --debug), logging is minimal and goes to stderr only.
package omrxlog

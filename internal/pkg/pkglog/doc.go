// Package pkglog sets up the process-wide slog logger: JSON on stdout with
// stable keys, a service attribute and the request correlation ID.
package pkglog

// Package pkgmetric exposes Prometheus metrics for the HTTP layer and for
// dataset processing on a registry owned by the process.
package pkgmetric

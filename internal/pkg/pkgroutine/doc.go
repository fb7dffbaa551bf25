// Package pkgroutine runs background work with bounded concurrency. Panics
// are recovered and reported as errors from Wait.
package pkgroutine

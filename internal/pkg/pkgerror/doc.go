// Package pkgerror holds the structured error returned by usecases and
// rendered by the HTTP layer. Each Error carries a user-facing message, a
// Type, a Code that maps to an HTTP status, and optional per-field details.
package pkgerror

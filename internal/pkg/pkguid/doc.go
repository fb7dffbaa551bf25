// Package pkguid generates identifiers: UUIDv7 strings for datasets and
// request correlation, Snowflake numbers for events.
package pkguid

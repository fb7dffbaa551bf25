// Package pkgrouter is the HTTP router of the service: httprouter under an
// application Handler that returns a payload or an error, a JSON envelope,
// file downloads, and the shared middleware (recovery, correlation ID,
// request logging, rate and body limits).
package pkgrouter

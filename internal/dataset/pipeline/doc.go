// Package pipeline cleans a raw OHLC table in four ordered stages:
// schema normalization, timestamp reconstruction, order and duplicate
// resolution, and date-range filtering.
//
// Every stage is a pure function over an entity.Table. Anomalies are never
// logged from here; they come back as entity.Diagnostic values so the caller
// decides how to surface them.
package pipeline

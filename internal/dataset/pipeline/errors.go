package pipeline

import "errors"

var (
	// ErrMissingTimestampColumn aborts a run: the table has no Date column.
	ErrMissingTimestampColumn = errors.New("no 'Date' column found")

	// ErrMalformedRange is a warning: the range filter was skipped.
	ErrMalformedRange = errors.New("malformed date range")

	ErrUnparseableTimestamp = errors.New("unparseable timestamp")
)

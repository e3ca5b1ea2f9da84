package workerpool

import "time"

// FetchEvent represents a notification that a work item has been processed.
type FetchEvent struct {
	// Key is the key of the fetched resource.
	Key     string
	Locator string
	Family  string
	Variant string
	// Duration is the time spent fetching and decoding.
	Duration time.Duration
	// Error is set if the work item failed.
	Error error
}

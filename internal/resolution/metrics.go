package resolution

import (
	"ocm.software/open-component-model/fontcache/internal/metrics"
)

const (
	// CacheMissCounterLabel tracks how many requests started a new fetch.
	CacheMissCounterLabel = "cache_miss"
	// CacheHitCounterLabel tracks how many requests were served from the result cache.
	CacheHitCounterLabel = "cache_hit"
	// CacheShareCounterLabel tracks how many requests joined a fetch already in flight.
	CacheShareCounterLabel = "cache_share"
	// ConflictCounterLabel tracks how many requests were rejected as conflicts.
	ConflictCounterLabel = "conflict"
	// FailedOutcomeCounterLabel tracks how many resources ended in a failed outcome.
	FailedOutcomeCounterLabel = "failed_outcome"
	// BatchCompletedCounterLabel tracks how many batches completed.
	BatchCompletedCounterLabel = "batch_completed"
	// Subsystem is the name of the component registering for these metrics.
	Subsystem = "resolution"
)

// CacheMissCounterTotal counts the number of times a cache miss occurred.
// [family, variant].
var CacheMissCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	CacheMissCounterLabel,
	"Number of times a cache miss occurred.",
	"family", "variant",
)

// CacheHitCounterTotal counts the number of times a cache hit occurred.
// [family, variant].
var CacheHitCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	CacheHitCounterLabel,
	"Number of times a cache hit occurred.",
	"family", "variant",
)

// CacheShareCounterTotal counts the number of times a request joined an in-flight fetch.
// [family, variant].
var CacheShareCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	CacheShareCounterLabel,
	"Number of times a cache share occurred.",
	"family", "variant",
)

// ConflictCounterTotal counts the number of rejected conflicting requests.
// [family, variant].
var ConflictCounterTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	ConflictCounterLabel,
	"Number of times a request conflicted with a previously recorded locator.",
	"family", "variant",
)

// FailedOutcomeCounterTotal counts the number of resources cached as failed.
var FailedOutcomeCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	FailedOutcomeCounterLabel,
	"Number of resources whose fetch or decode failed.",
)

// BatchCompletedCounterTotal counts the number of completed batches.
var BatchCompletedCounterTotal = metrics.MustRegisterCounter(
	Subsystem,
	BatchCompletedCounterLabel,
	"Number of completed batches.",
)

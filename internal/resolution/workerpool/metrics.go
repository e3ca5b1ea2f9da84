package workerpool

import (
	"ocm.software/open-component-model/fontcache/internal/metrics"
)

const (
	// QueueSizeGaugeLabel tracks the current size of the fetch queue.
	QueueSizeGaugeLabel = "queue_size"
	// InProgressGaugeLabel tracks the number of fetches currently queued or running.
	InProgressGaugeLabel = "in_progress"
	// FetchDurationHistogramLabel tracks the duration of fetch and decode.
	FetchDurationHistogramLabel = "fetch_duration_seconds"
	// EventChannelDropsLabel tracks the number of times events could not be emitted due to channel overflow.
	EventChannelDropsLabel = "event_channel_drops"
	// Subsystem is the name of the component registering for these metrics.
	Subsystem = "workerpool"
)

const (
	// FamilyLabel is the name of the label for the font family.
	FamilyLabel = "family"
	// VariantLabel is the name of the label for the font variant.
	VariantLabel = "variant"
)

// QueueSizeGauge tracks the current size of the fetch queue.
var QueueSizeGauge = metrics.MustRegisterGauge(
	Subsystem,
	QueueSizeGaugeLabel,
	"Current size of the fetch queue.",
)

// InProgressGauge tracks the number of fetches currently queued or running.
var InProgressGauge = metrics.MustRegisterGauge(
	Subsystem,
	InProgressGaugeLabel,
	"Number of fetches currently queued or running.",
)

// FetchDurationHistogram tracks the duration of fetch and decode.
// [family, variant].
var FetchDurationHistogram = metrics.MustRegisterHistogramVec(
	Subsystem,
	FetchDurationHistogramLabel,
	"Duration of fetching and decoding a resource in seconds.",
	[]float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	FamilyLabel, VariantLabel,
)

// EventChannelDropsTotal counts the number of times events could not be emitted due to channel overflow.
// [family, variant].
var EventChannelDropsTotal = metrics.MustRegisterCounterVec(
	Subsystem,
	EventChannelDropsLabel,
	"Number of times fetch events could not be emitted due to channel overflow.",
	FamilyLabel, VariantLabel,
)

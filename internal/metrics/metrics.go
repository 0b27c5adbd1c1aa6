package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "epubpager"

const (
	LabelResult = "result"
	LabelKind   = "kind"
)

const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

var PaginationDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:      "pagination_duration_seconds",
		Help:      "Time spent packing chapters into pages",
		Namespace: Namespace,
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	},
)

var PagesProduced = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "pages_produced_total",
		Help:      "Total number of pages produced by the paginator",
		Namespace: Namespace,
	},
)

var CacheLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "page_cache_lookups_total",
		Help:      "Page cache lookups by result",
		Namespace: Namespace,
	},
	[]string{LabelResult},
)

var FallbackPages = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "fallback_pages_total",
		Help:      "Books rendered as a single message page, by error kind",
		Namespace: Namespace,
	},
	[]string{LabelKind},
)

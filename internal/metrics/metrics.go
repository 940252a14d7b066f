// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AwardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_awards_total",
			Help: "Total number of accepted point awards",
		},
		[]string{"section", "role"},
	)

	AwardRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engagement_award_rejections_total",
			Help: "Total number of awards rejected by the policy",
		},
		[]string{"reason"},
	)

	PointsAwarded = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "engagement_points_awarded",
			Help:    "Distribution of award magnitudes",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
		[]string{"section"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

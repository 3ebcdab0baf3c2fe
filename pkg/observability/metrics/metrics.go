package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Resolution
	ResolutionPasses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restinspect_resolution_passes_total",
			Help: "Resolution passes by mode, strategy and final status.",
		},
		[]string{"mode", "strategy", "status"},
	)

	ResolutionPassDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restinspect_resolution_pass_duration_seconds",
			Help:    "Wall time of a resolution pass.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		},
		[]string{"mode", "strategy"},
	)

	ResolutionClusters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restinspect_resolution_clusters_total",
			Help: "Clusters committed, split into merged clusters and singletons.",
		},
		[]string{"kind"},
	)

	ResolutionLinkEdges = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restinspect_resolution_link_edges_total",
			Help: "Link edges written by resolution passes.",
		},
	)

	ResolutionRepoints = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restinspect_resolution_repoints_total",
			Help: "Inspection re-point operations issued for merged members.",
		},
	)

	// Tweets
	TweetsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restinspect_tweets_processed_total",
			Help: "Tweets run through the association matcher by outcome.",
		},
		[]string{"status"},
	)

	TweetAssociations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restinspect_tweet_associations_total",
			Help: "Tweet to restaurant associations persisted by provenance.",
		},
		[]string{"provenance"},
	)

	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restinspect_http_requests_total",
			Help: "HTTP requests served by method and status code.",
		},
		[]string{"method", "status"},
	)
)

func ObservePass(mode, strategy, status string, elapsed time.Duration) {
	ResolutionPasses.WithLabelValues(mode, strategy, status).Inc()
	ResolutionPassDuration.WithLabelValues(mode, strategy).Observe(elapsed.Seconds())
}

func ObserveCluster(merged bool, edges, repoints int) {
	kind := "singleton"
	if merged {
		kind = "merged"
	}
	ResolutionClusters.WithLabelValues(kind).Inc()
	ResolutionLinkEdges.Add(float64(edges))
	ResolutionRepoints.Add(float64(repoints))
}

func ObserveHTTP(method string, status int) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}

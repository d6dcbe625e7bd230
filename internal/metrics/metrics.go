package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/jdevelop/fs4search/fsqapi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsqsearch_search_requests_total",
			Help: "Total number of venue searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fsqsearch_search_duration_seconds",
			Help:    "Duration of venue searches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 15},
		},
	)

	VenuesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fsqsearch_venues_total",
			Help: "Venues seen in search responses, mapped or skipped",
		},
		[]string{"state"},
	)
)

// Outcome labels a search error, "ok" for nil and "malformed" for a body
// that was not understood.
func Outcome(err error, res *fsqapi.SearchResult) string {
	var serr *fsqapi.SearchError
	switch {
	case errors.As(err, &serr):
		return serr.Kind.String()
	case err != nil:
		return "error"
	case res != nil && res.Err() != nil:
		return "malformed"
	}
	return "ok"
}

// RecordSearch updates the metrics for one search.
func RecordSearch(elapsed time.Duration, res *fsqapi.SearchResult, err error) {
	SearchRequestsTotal.WithLabelValues(Outcome(err, res)).Inc()
	SearchDuration.Observe(elapsed.Seconds())
	if res == nil {
		return
	}
	VenuesTotal.WithLabelValues("mapped").Add(float64(res.Count()))
	VenuesTotal.WithLabelValues("skipped").Add(float64(len(res.Skipped())))
}

func Handler() http.Handler {
	return promhttp.Handler()
}

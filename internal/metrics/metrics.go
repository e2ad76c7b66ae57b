package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ScrapeRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramscout_scrape_runs_total",
		Help: "Total scrape runs",
	})
	FetchOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gramscout_fetch_outcomes_total",
		Help: "Fetch outcomes by kind",
	}, []string{"outcome"})
	ProfilesPersisted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramscout_profiles_persisted_total",
		Help: "Profile rows written to the store",
	})
	PersistErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gramscout_persist_errors_total",
		Help: "Failed persistence calls",
	})
	ScrapeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gramscout_scrape_duration_seconds",
		Help:    "Scrape run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(ScrapeRuns, FetchOutcomes, ProfilesPersisted, PersistErrors, ScrapeDuration)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090"). Empty
// addr disables it.
func StartServer(addr string) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveScrapeDuration records one run's duration.
func ObserveScrapeDuration(start time.Time) {
	ScrapeDuration.Observe(time.Since(start).Seconds())
}

// IncOutcome counts one terminal fetch outcome.
func IncOutcome(kind string) { FetchOutcomes.WithLabelValues(kind).Inc() }

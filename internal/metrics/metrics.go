// Package metrics records the outcome of batch runs for prometheus. A batch is not a long running
// server, so the registry is pushed to a pushgateway at the end of a run instead of being scraped.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Config is the "metrics" section of akleg.json5.
type Config struct {
	// pushgateway url, metrics are not pushed when empty
	PushUrl string `json:"push_url"`
	Job     string `json:"job"`
}

type Metrics struct {
	Registry *prometheus.Registry

	// rows found in the store and rows inserted, by table
	RowsExisting *prometheus.GaugeVec
	RowsInserted *prometheus.GaugeVec

	// basis requests by endpoint and outcome
	FetchRequests *prometheus.CounterVec

	StageDuration *prometheus.HistogramVec

	LastSuccess prometheus.Gauge
	LastFailure prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		RowsExisting: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "akleg_ingest_rows_existing",
			Help: "Rows of the last ingest that were already stored, by table",
		}, []string{"table"}),
		RowsInserted: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "akleg_ingest_rows_inserted",
			Help: "Rows inserted by the last ingest, by table",
		}, []string{"table"}),
		FetchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "akleg_basis_requests_total",
			Help: "Basis api requests by endpoint and outcome",
		}, []string{"endpoint", "outcome"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "akleg_stage_duration_seconds",
			Help:    "Duration of each pipeline stage",
			Buckets: []float64{0.1, 1, 5, 15, 60, 300, 900, 3600},
		}, []string{"stage"}),
		LastSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Name: "akleg_last_success_timestamp_seconds",
			Help: "Unix time of the last successful batch",
		}),
		LastFailure: factory.NewGauge(prometheus.GaugeOpts{
			Name: "akleg_last_failure_timestamp_seconds",
			Help: "Unix time of the last failed batch",
		}),
	}
}

// ObserveIngest records the split of one ingested table.
func (m *Metrics) ObserveIngest(table string, existing, inserted int) {
	if m != nil {
		m.RowsExisting.WithLabelValues(table).Set(float64(existing))
		m.RowsInserted.WithLabelValues(table).Set(float64(inserted))
	}
}

// IncrementFetch records one basis request.
func (m *Metrics) IncrementFetch(endpoint, outcome string) {
	if m != nil {
		m.FetchRequests.WithLabelValues(endpoint, outcome).Inc()
	}
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m != nil {
		m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}
}

func (m *Metrics) MarkRun(at time.Time, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.LastFailure.Set(float64(at.Unix()))
		return
	}
	m.LastSuccess.Set(float64(at.Unix()))
}

// Push sends every metric to the configured pushgateway, it does nothing without a push url.
func (m *Metrics) Push(ctx context.Context, config Config) error {
	if m == nil || config.PushUrl == "" {
		return nil
	}
	job := config.Job
	if job == "" {
		job = "akleg"
	}
	return push.New(config.PushUrl, job).Gatherer(m.Registry).PushContext(ctx)
}

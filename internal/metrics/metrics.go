package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var msBuckets = []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000}

var (
	SessionsCreatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_sessions_created_total",
		Help: "Total number of viewer sessions created",
	})
	SessionsEvictedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_sessions_evicted_total",
		Help: "Total number of viewer sessions expired or evicted",
	})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "webkart_sessions_active",
		Help: "Number of live viewer sessions",
	})
	LocalLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webkart_local_loads_total",
		Help: "Local dataset loads by result",
	}, []string{"result"})
	ClicksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_clicks_total",
		Help: "Total map clicks handled by the spatial filter",
	})
	ClicksWithoutDataTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_clicks_without_data_total",
		Help: "Clicks ignored because the local dataset was not loaded",
	})
	FilterMatches = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "webkart_filter_matches",
		Help:    "Number of local features matched per click",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})
	FilterGeometryFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_filter_geometry_failures_total",
		Help: "Features skipped because their geometry could not be tested",
	})
	FilterDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "webkart_filter_duration_ms",
		Help:    "Spatial filter duration in milliseconds",
		Buckets: msBuckets,
	})
	RemoteRequestsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_remote_requests_total",
		Help: "Total remote feature requests",
	})
	RemoteSuccessTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_remote_success_total",
		Help: "Total remote feature requests that returned a collection",
	})
	RemoteFailTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_remote_fail_total",
		Help: "Total remote feature requests that failed",
	})
	RemoteStaleTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "webkart_remote_stale_total",
		Help: "Remote responses discarded because a newer request was issued",
	})
	RemoteDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "webkart_remote_duration_ms",
		Help:    "Remote feature request duration in milliseconds",
		Buckets: msBuckets,
	})
	RateLimitedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webkart_rate_limited_total",
		Help: "Requests rejected by the rate limiter",
	}, []string{"backend"})
)

func init() {
	prometheus.MustRegister(SessionsCreatedTotal)
	prometheus.MustRegister(SessionsEvictedTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(LocalLoadsTotal)
	prometheus.MustRegister(ClicksTotal)
	prometheus.MustRegister(ClicksWithoutDataTotal)
	prometheus.MustRegister(FilterMatches)
	prometheus.MustRegister(FilterGeometryFailuresTotal)
	prometheus.MustRegister(FilterDurationMs)
	prometheus.MustRegister(RemoteRequestsTotal)
	prometheus.MustRegister(RemoteSuccessTotal)
	prometheus.MustRegister(RemoteFailTotal)
	prometheus.MustRegister(RemoteStaleTotal)
	prometheus.MustRegister(RemoteDurationMs)
	prometheus.MustRegister(RateLimitedTotal)
}

// 文档注释：返回 Prometheus 指标处理器，在 API 前缀下挂载 /metrics
func Handler() http.Handler { return promhttp.Handler() }

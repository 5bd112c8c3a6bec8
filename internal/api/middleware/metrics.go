// metrics.go — Prometheus HTTP метрики SDS.
// Регистрирует sds_http_requests_total и sds_http_request_duration_seconds.
// Бизнес-метрики (sds_operations_total и др.) регистрируются в
// соответствующих пакетах и обновляются из сервисного слоя.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP метрики
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sds_http_requests_total",
			Help: "Общее количество HTTP-запросов к SDS",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sds_http_request_duration_seconds",
			Help:    "Длительность HTTP-запросов к SDS в секундах",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// knownPaths — фиксированные маршруты SDS для лейблов метрик.
// Неизвестные пути сводятся к "other" против роста кардинальности.
var knownPaths = map[string]struct{}{
	"/ping":                        {},
	"/health":                      {},
	"/status":                      {},
	"/metrics":                     {},
	"/available_validators":        {},
	"/save_file":                   {},
	"/save_or_update_file":         {},
	"/bulk_upload":                 {},
	"/get_file":                    {},
	"/retrieve_file":               {},
	"/delete_files":                {},
	"/virus_check_file":            {},
	"/scan_for_suspicious_content": {},
}

// MetricsMiddleware возвращает HTTP middleware для сбора Prometheus метрик.
func MetricsMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			path := r.URL.Path
			if _, ok := knownPaths[path]; !ok {
				path = "other"
			}

			wrapped := newResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(wrapped.statusCode)

			httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
		})
	}
}

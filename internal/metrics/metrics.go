// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
// birthdayパッケージのQueryMetricsインターフェースを満たす。
type Collector struct {
	queries           *prometheus.CounterVec
	queryLatency      prometheus.Histogram
	candidatesScanned prometheus.Counter
	invalidDates      prometheus.Counter
	storeErrors       prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "birthdayman_queries_total",
			Help: "誕生日一覧クエリの合計数（表示範囲・対象範囲別）",
		}, []string{"range", "scope"}),
		queryLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "birthdayman_query_latency_seconds",
			Help:    "誕生日一覧クエリのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		candidatesScanned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthdayman_candidates_scanned_total",
			Help: "走査された誕生日候補の合計数",
		}),
		invalidDates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthdayman_invalid_dates_total",
			Help: "スキップされた不正な誕生日値の合計数",
		}),
		storeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "birthdayman_store_errors_total",
			Help: "メンバーストア問い合わせ失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.queries,
		c.queryLatency,
		c.candidatesScanned,
		c.invalidDates,
		c.storeErrors,
	)

	return c
}

// RecordQuery はクエリの実行を範囲ラベル付きで記録し、レイテンシを観測する。
func (c *Collector) RecordQuery(rng, scope string, duration time.Duration) {
	c.queries.WithLabelValues(rng, scope).Inc()
	c.queryLatency.Observe(duration.Seconds())
}

// RecordCandidatesScanned は走査された候補数を記録する。
func (c *Collector) RecordCandidatesScanned(count int) {
	c.candidatesScanned.Add(float64(count))
}

// RecordInvalidDate はスキップされた不正な誕生日値を記録する。
func (c *Collector) RecordInvalidDate() {
	c.invalidDates.Inc()
}

// RecordStoreError はメンバーストア問い合わせ失敗を記録する。
func (c *Collector) RecordStoreError() {
	c.storeErrors.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

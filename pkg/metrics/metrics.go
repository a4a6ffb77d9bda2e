// Package metrics 定义 Prometheus 指标并提供记录函数。
//
// 指标通过 promauto 注册到默认 Registry；需要暴露时由宿主程序挂载 promhttp.Handler()。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推荐结果分类
const (
	ResultOK        = "ok"
	ResultEmpty     = "empty"
	ResultRecovered = "recovered" // 计算异常被恢复为空结果
	ResultRejected  = "rejected"  // 调用方策略拒绝（如临时画像物品过少）
	ResultError     = "error"     // 数据源错误
)

var (
	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cfkit_node_duration_seconds",
			Help:    "Duration of pipeline node execution in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"pipeline", "node", "kind"},
	)

	NodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfkit_node_errors_total",
			Help: "Total number of pipeline node errors",
		},
		[]string{"pipeline", "node"},
	)

	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cfkit_recommendations_total",
			Help: "Total number of recommendations by mode (user, adhoc, hot) and result",
		},
		[]string{"mode", "result"},
	)

	MatrixSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cfkit_matrix_size",
			Help: "Dimensions of the most recently built interaction matrix",
		},
		[]string{"dim"}, // users / items
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cfkit_breaker_state",
			Help: "Circuit breaker state per source (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordNode 记录一次 Node 执行。
func RecordNode(pipeline, node, kind string, d time.Duration, err error) {
	NodeDuration.WithLabelValues(pipeline, node, kind).Observe(d.Seconds())
	if err != nil {
		NodeErrors.WithLabelValues(pipeline, node).Inc()
	}
}

// RecordRecommendation 记录一次推荐的模式（user / adhoc）与结果。
func RecordRecommendation(mode, result string) {
	Recommendations.WithLabelValues(mode, result).Inc()
}

// RecordMatrix 记录矩阵尺寸。
func RecordMatrix(users, items int) {
	MatrixSize.WithLabelValues("users").Set(float64(users))
	MatrixSize.WithLabelValues("items").Set(float64(items))
}

// RecordBreakerState 记录熔断器状态。
func RecordBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

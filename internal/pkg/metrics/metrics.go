// internal/pkg/metrics/metrics.go
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersPlaced 统计成功创建的订单数
	OrdersPlaced = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "artshop",
		Name:      "orders_placed_total",
		Help:      "Number of orders successfully placed.",
	})

	// StockRejections 统计因库存不足被拒绝的下单/改单请求
	StockRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artshop",
		Name:      "order_stock_rejections_total",
		Help:      "Number of order operations rejected for insufficient stock.",
	}, []string{"operation"})

	// Operations 按结果统计订单和艺术品的业务操作，operation 形如 order.create
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "artshop",
		Name:      "operations_total",
		Help:      "Business operations by result.",
	}, []string{"operation", "result"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "artshop",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "pattern", "code"})
)

// ObserveOperation 记录一次业务操作的结果
func ObserveOperation(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	Operations.WithLabelValues(operation, result).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack 让 WebSocket 升级可以穿过埋点包装
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

// InstrumentHandler 记录每个路由的请求耗时。路由模式由 ServeMux 在匹配后写入 r.Pattern。
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		httpDuration.WithLabelValues(r.Method, pattern, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}

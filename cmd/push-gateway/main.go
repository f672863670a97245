// cmd/push-gateway/main.go
package main

import (
	"net/http"

	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/mq"
	"artshop/internal/pkg/redis"
	"artshop/internal/service/push"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const (
	serviceName = "push-gateway"
	listenPort  = 8088
)

func main() {
	cfg := bootstrap.Init(serviceName)
	nodeID := serviceName + "-" + uuid.New().String()[:8]
	var closers []func() error

	var sessions push.SessionStore = push.NoopSessionStore{}
	if cfg.Infra.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to initialize redis client")
		}
		closers = append(closers, rdb.Close)
		sessions = push.NewRedisSessionStore(rdb.GetClient(), cfg.Infra.Redis.SessionTTL)
	}

	hub := push.NewHub(nodeID, sessions)
	workers := []bootstrap.Worker{hub}

	if cfg.Infra.Kafka.Enabled {
		// 每个节点独立的消费组：事件广播到所有节点，由持有连接的节点推送
		reader := mq.NewKafkaReader(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventsTopic, cfg.Infra.Kafka.ConsumerGroup+"-"+nodeID)
		workers = append(workers, push.NewOrderEventConsumer(reader, hub, otel.Tracer(serviceName)))
	} else {
		logger.L().Warn().Msg("Kafka disabled, push gateway will not receive order events")
	}

	logger.L().Info().Str("node", nodeID).Msg("Push gateway node starting")
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        listenPort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			appCtx.Mux.HandleFunc("GET /ws", hub.ServeWs)
		},
		Workers: workers,
		Closers: closers,
	})
}

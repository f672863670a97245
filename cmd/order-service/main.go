// cmd/order-service/main.go
package main

import (
	"net/http"

	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/database"
	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/mq"
	"artshop/internal/pkg/redis"
	artport "artshop/internal/service/art/domain/port"
	artinfra "artshop/internal/service/art/infrastructure"
	"artshop/internal/service/order/application"
	"artshop/internal/service/order/domain/port"
	"artshop/internal/service/order/infrastructure"
	"artshop/internal/service/order/interfaces"
	"artshop/internal/zookeeper"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const (
	serviceName = "order-service"
	listenPort  = 8082
)

// main 函数是应用的"组装根" (Composition Root)
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	cfg := bootstrap.Init(serviceName)
	var closers []func() error

	// 1. 数据库
	db, err := database.Open(cfg.Infra.Database)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to open database")
	}
	closers = append(closers, func() error { return database.Close(db) })
	if cfg.Infra.Database.AutoMigrate {
		if err := infrastructure.AutoMigrate(db); err != nil {
			logger.L().Fatal().Err(err).Msg("failed to migrate schema")
		}
	}

	// 2. 目录缓存：库存变化后需要失效 art-service 的读缓存
	var cache artport.ArtCache = artinfra.NoopArtCache{}
	if cfg.Infra.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to initialize redis client")
		}
		closers = append(closers, rdb.Close)
		cache = artinfra.NewRedisArtCache(rdb.GetClient(), cfg.Infra.Redis.CacheTTL)
	}

	// 3. 库存锁，与 art-service 共用同一组 ZooKeeper 节点
	var locker artport.StockLocker = artinfra.NewLocalStockLocker()
	if cfg.Infra.Zookeeper.Enabled {
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		closers = append(closers, conn.Close)
		locker = artinfra.NewZookeeperStockLocker(conn, cfg.Infra.Zookeeper.LockTimeout)
	}

	// 4. 订单事件
	var events port.OrderEventPublisher = infrastructure.NoopEventPublisher{}
	if cfg.Infra.Kafka.Enabled {
		writer := mq.NewKafkaWriter(cfg.Infra.Kafka.Brokers, cfg.Infra.Kafka.OrderEventsTopic)
		closers = append(closers, writer.Close)
		events = infrastructure.NewOrderEventProducer(writer)
	}

	svc := application.NewOrderApplicationService(
		infrastructure.NewGormOrderRepository(db),
		artinfra.NewGormArtRepository(db),
		database.NewTxManager(db),
		locker,
		cache,
		events,
		otel.Tracer(serviceName),
		application.Options{
			// 开关可以通过 Nacos 在运行时切换
			RestockOnDelete: func() bool { return bootstrap.GetCurrentConfig().App.Orders.RestockOnDelete },
		},
	)
	handler := interfaces.NewOrderHandler(svc)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        listenPort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
			appCtx.Mux.Handle("/metrics", promhttp.Handler())
			handler.RegisterRoutes(appCtx.Mux)
		},
		Closers: closers,
	})
}

// cmd/art-service/main.go
package main

import (
	"net/http"

	"artshop/internal/pkg/bootstrap"
	"artshop/internal/pkg/database"
	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/redis"
	"artshop/internal/service/art/application"
	"artshop/internal/service/art/domain/port"
	"artshop/internal/service/art/infrastructure"
	"artshop/internal/service/art/interfaces"
	orderinfra "artshop/internal/service/order/infrastructure"
	"artshop/internal/zookeeper"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
)

const (
	serviceName = "art-service"
	listenPort  = 8081
)

// main 函数是应用的"组装根" (Composition Root)
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
		// 删除艺术品前需要查询订单行，因此订单表一并迁移
		if err := orderinfra.AutoMigrate(db); err != nil {
			logger.L().Fatal().Err(err).Msg("failed to migrate schema")
		}
	}

	// 2. 缓存
	var cache port.ArtCache = infrastructure.NoopArtCache{}
	if cfg.Infra.Redis.Enabled {
		rdb, err := redis.NewClient(cfg.Infra.Redis.Addr, cfg.Infra.Redis.Password, cfg.Infra.Redis.DB)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to initialize redis client")
		}
		closers = append(closers, rdb.Close)
		cache = infrastructure.NewRedisArtCache(rdb.GetClient(), cfg.Infra.Redis.CacheTTL)
	}

	// 3. 库存锁：多实例部署时必须使用 ZooKeeper
	var locker port.StockLocker = infrastructure.NewLocalStockLocker()
	if cfg.Infra.Zookeeper.Enabled {
		conn, err := zookeeper.Connect(cfg.Infra.Zookeeper.Servers, cfg.Infra.Zookeeper.SessionTimeout)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to connect to zookeeper")
		}
		closers = append(closers, conn.Close)
		locker = infrastructure.NewZookeeperStockLocker(conn, cfg.Infra.Zookeeper.LockTimeout)
	}

	// 4. 图片存储
	images, err := infrastructure.NewDiskImageStorage(cfg.App.UploadDir)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	svc := application.NewArtApplicationService(
		infrastructure.NewGormArtRepository(db),
		database.NewTxManager(db),
		cache,
		images,
		locker,
		orderinfra.NewGormOrderRepository(db),
		otel.Tracer(serviceName),
	)
	handler := interfaces.NewArtHandler(svc, images.Dir())

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

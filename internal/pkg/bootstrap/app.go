// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"artshop/internal/pkg/logger"
	"artshop/internal/pkg/metrics"
	"artshop/internal/pkg/nacos"
	"artshop/internal/tracing"
)

type AppCtx struct {
	Mux    *http.ServeMux
	Nacos  *nacos.Client
	Config *Config
}

// Worker 是随服务一起启动和停止的后台任务，例如 Kafka 消费者
type Worker interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己独特的 HTTP 路由
	Workers          []Worker
	Closers          []func() error // 关停时按注册的逆序执行
}

var nacosClient *nacos.Client

// Init 加载配置、初始化日志，并在启用时从 Nacos 配置中心合并远程配置。
func Init(serviceName string) *Config {
	cfg, err := LoadConfig(getEnv("CONFIG_PATH", "configs/config.yaml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}
	logger.Init(serviceName, cfg.App.LogLevel, os.Stdout)

	if cfg.Infra.Nacos.Enabled {
		client, err := newNacosClient(cfg.Infra.Nacos)
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to initialize nacos client")
		}
		nacosClient = client
		cfg = loadRemoteConfig(client, cfg)
	}

	SetCurrentConfig(cfg)
	return cfg
}

func newNacosClient(nc NacosConfig) (*nacos.Client, error) {
	serverConfigs, err := nacos.ParseServerConfigs(nc.ServerAddrs)
	if err != nil {
		return nil, err
	}
	return nacos.NewNacosClientWithConfigs(serverConfigs, nacos.NewClientConfig(nc.Namespace), nc.Group)
}

// loadRemoteConfig 合并 Nacos 上的配置，并监听后续变更
func loadRemoteConfig(client *nacos.Client, local *Config) *Config {
	dataID := local.Infra.Nacos.DataID
	content, err := client.GetConfig(dataID)
	if err != nil {
		logger.L().Warn().Err(err).Msg("Remote config unavailable, using local config")
		return local
	}
	merged := local
	if content != "" {
		if m, err := MergeYAML(local, content); err == nil {
			merged = m
		} else {
			logger.L().Warn().Err(err).Msg("Invalid remote config ignored")
		}
	}

	err = client.ListenConfig(dataID, func(content string) {
		updated, err := MergeYAML(GetCurrentConfig(), content)
		if err != nil {
			logger.L().Error().Err(err).Msg("Invalid remote config update ignored")
			return
		}
		SetCurrentConfig(updated)
		logger.L().Info().Str("dataId", dataID).Msg("Config reloaded from Nacos")
	})
	if err != nil {
		logger.L().Warn().Err(err).Msg("Failed to listen for remote config changes")
	}
	return merged
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	cfg := GetCurrentConfig()

	// 1. Tracer
	shutdownTracer, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint, cfg.Infra.Jaeger.Enabled)
	if err != nil {
		logger.L().Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. 服务注册（仅在启用 Nacos 时）
	var ip string
	if nacosClient != nil {
		ip, err = GetOutboundIP()
		if err != nil {
			logger.L().Fatal().Err(err).Msg("failed to get outbound IP address")
		}
		if err := nacosClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.L().Fatal().Err(err).Msg("failed to register service with nacos")
		}
	}

	// 3. 后台任务
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	for _, w := range info.Workers {
		if err := w.Start(workerCtx); err != nil {
			logger.L().Fatal().Err(err).Msg("failed to start worker")
		}
	}

	// 4. 创建并启动 HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: nacosClient, Config: cfg})
	}
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(info.Port),
		Handler:           metrics.InstrumentHandler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.L().Info().Int("port", info.Port).Msgf("%s listening", info.ServiceName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L().Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 5. 优雅关停
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.L().Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 按顺序执行清理操作 (后进先出)
	if nacosClient != nil {
		if err := nacosClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
			logger.L().Error().Err(err).Msg("Error deregistering from Nacos")
		}
		nacosClient.Close()
	}

	if err := server.Shutdown(ctx); err != nil {
		logger.L().Error().Err(err).Msg("Error shutting down http server")
	}

	cancelWorkers()
	for i := len(info.Workers) - 1; i >= 0; i-- {
		info.Workers[i].Stop(ctx)
	}

	for i := len(info.Closers) - 1; i >= 0; i-- {
		if err := info.Closers[i](); err != nil {
			logger.L().Error().Err(err).Msg("Error closing resource")
		}
	}

	// 最后关闭 Tracer Provider，确保所有缓冲的 trace 都被发送出去
	if err := shutdownTracer(ctx); err != nil {
		logger.L().Error().Err(err).Msg("Error shutting down tracer provider")
	}

	logger.L().Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// GetOutboundIP 获取本机对外通信使用的 IP，用于服务注册
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}

// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构，对应 configs/config.yaml
type Config struct {
	App   AppConfig   `yaml:"app"`
	Infra InfraConfig `yaml:"infra"`
}

type AppConfig struct {
	LogLevel  string       `yaml:"logLevel"`
	UploadDir string       `yaml:"uploadDir"`
	Orders    OrdersConfig `yaml:"orders"`
}

type OrdersConfig struct {
	// RestockOnDelete 为 true 时，删除待处理订单会归还库存。默认关闭，保持历史行为。
	RestockOnDelete bool `yaml:"restockOnDelete"`
}

type InfraConfig struct {
	Jaeger    JaegerConfig    `yaml:"jaeger"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Zookeeper ZookeeperConfig `yaml:"zookeeper"`
	Nacos     NacosConfig     `yaml:"nacos"`
}

type JaegerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

type DatabaseConfig struct {
	Driver       string `yaml:"driver"` // mysql | sqlite
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	User         string `yaml:"user"`
	Password     string `yaml:"password"`
	Name         string `yaml:"name"`
	Path         string `yaml:"path"` // 仅 sqlite 使用
	MaxOpenConns int    `yaml:"maxOpenConns"`
	MaxIdleConns int    `yaml:"maxIdleConns"`
	AutoMigrate  bool   `yaml:"autoMigrate"`
}

type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
	// SessionTTL 是推送网关会话记录的有效期
	SessionTTL time.Duration `yaml:"sessionTTL"`
}

type KafkaConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Brokers          []string `yaml:"brokers"`
	OrderEventsTopic string   `yaml:"orderEventsTopic"`
	ConsumerGroup    string   `yaml:"consumerGroup"`
}

type ZookeeperConfig struct {
	Enabled        bool          `yaml:"enabled"`
	Servers        []string      `yaml:"servers"`
	SessionTimeout time.Duration `yaml:"sessionTimeout"`
	LockTimeout    time.Duration `yaml:"lockTimeout"`
}

type NacosConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServerAddrs string `yaml:"serverAddrs"`
	Namespace   string `yaml:"namespace"`
	Group       string `yaml:"group"`
	DataID      string `yaml:"dataId"`
}

var currentConfig atomic.Pointer[Config]

// DefaultConfig 返回本地开发可直接运行的默认配置
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  "info",
			UploadDir: "./uploads",
		},
		Infra: InfraConfig{
			Jaeger: JaegerConfig{Endpoint: "http://localhost:14268/api/traces"},
			Database: DatabaseConfig{
				Driver:       "mysql",
				Host:         "localhost",
				Port:         3306,
				User:         "root",
				Name:         "artshop",
				Path:         "artshop.db",
				MaxOpenConns: 20,
				MaxIdleConns: 5,
				AutoMigrate:  true,
			},
			Redis: RedisConfig{Addr: "localhost:6379", CacheTTL: 5 * time.Minute, SessionTTL: 24 * time.Hour},
			Kafka: KafkaConfig{
				Brokers:          []string{"localhost:9092"},
				OrderEventsTopic: "order-events",
				ConsumerGroup:    "push-gateway-group",
			},
			Zookeeper: ZookeeperConfig{
				Servers:        []string{"localhost:2181"},
				SessionTimeout: 10 * time.Second,
				LockTimeout:    30 * time.Second,
			},
			Nacos: NacosConfig{
				ServerAddrs: "localhost:8848",
				Group:       "DEFAULT_GROUP",
				DataID:      "artshop.yaml",
			},
		},
	}
}

// LoadConfig 读取 YAML 配置文件并叠加环境变量。文件不存在时使用默认值。
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// 没有配置文件时完全依赖默认值和环境变量
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

// MergeYAML 将远程（Nacos）下发的 YAML 覆盖到已有配置上
func MergeYAML(cfg *Config, content string) (*Config, error) {
	merged := *cfg
	if err := yaml.Unmarshal([]byte(content), &merged); err != nil {
		return nil, fmt.Errorf("failed to merge remote config: %w", err)
	}
	return &merged, nil
}

// GetCurrentConfig 返回当前生效的配置快照
func GetCurrentConfig() *Config {
	if cfg := currentConfig.Load(); cfg != nil {
		return cfg
	}
	return DefaultConfig()
}

// SetCurrentConfig 替换当前配置，Nacos 监听回调和测试都会使用
func SetCurrentConfig(cfg *Config) {
	currentConfig.Store(cfg)
}

func applyEnv(cfg *Config) {
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.UploadDir = getEnv("UPLOAD_DIR", cfg.App.UploadDir)
	cfg.App.Orders.RestockOnDelete = getEnvBool("ORDERS_RESTOCK_ON_DELETE", cfg.App.Orders.RestockOnDelete)

	cfg.Infra.Jaeger.Enabled = getEnvBool("JAEGER_ENABLED", cfg.Infra.Jaeger.Enabled)
	cfg.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", cfg.Infra.Jaeger.Endpoint)

	cfg.Infra.Database.Driver = getEnv("DB_DRIVER", cfg.Infra.Database.Driver)
	cfg.Infra.Database.Host = getEnv("DB_HOST", cfg.Infra.Database.Host)
	cfg.Infra.Database.Port = getEnvInt("DB_PORT", cfg.Infra.Database.Port)
	cfg.Infra.Database.User = getEnv("DB_USER", cfg.Infra.Database.User)
	cfg.Infra.Database.Password = getEnv("DB_PASSWORD", cfg.Infra.Database.Password)
	cfg.Infra.Database.Name = getEnv("DB_NAME", cfg.Infra.Database.Name)
	cfg.Infra.Database.Path = getEnv("DB_PATH", cfg.Infra.Database.Path)

	cfg.Infra.Redis.Enabled = getEnvBool("REDIS_ENABLED", cfg.Infra.Redis.Enabled)
	cfg.Infra.Redis.Addr = getEnv("REDIS_ADDR", cfg.Infra.Redis.Addr)

	cfg.Infra.Kafka.Enabled = getEnvBool("KAFKA_ENABLED", cfg.Infra.Kafka.Enabled)
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(brokers, ",")
	}

	cfg.Infra.Zookeeper.Enabled = getEnvBool("ZOOKEEPER_ENABLED", cfg.Infra.Zookeeper.Enabled)
	if servers := getEnv("ZOOKEEPER_SERVERS", ""); servers != "" {
		cfg.Infra.Zookeeper.Servers = strings.Split(servers, ",")
	}

	cfg.Infra.Nacos.Enabled = getEnvBool("NACOS_ENABLED", cfg.Infra.Nacos.Enabled)
	cfg.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", cfg.Infra.Nacos.ServerAddrs)
	cfg.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", cfg.Infra.Nacos.Namespace)
	cfg.Infra.Nacos.Group = getEnv("NACOS_GROUP", cfg.Infra.Nacos.Group)
}

// getEnv 是一个内部辅助函数，从环境变量中读取配置。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

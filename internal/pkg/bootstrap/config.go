// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"log"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config 是所有服务共享的配置结构。
// 通过 CONFIG_PATH 指定的 YAML 文件加载，个别字段允许环境变量覆盖，
// 以便在容器环境中无需改动配置文件。
type Config struct {
	Infra struct {
		MySQL struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addrs string `yaml:"addrs"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers []string `yaml:"brokers"`
		} `yaml:"kafka"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`

	Booking struct {
		// 未确认预订的保留时间（分钟），超时后删除
		ConfirmationTimeoutMinutes int `yaml:"confirmation_timeout_minutes"`
		// 最多可以提前多少天预订
		MaxDaysAhead int `yaml:"max_days_ahead"`
		// 兜底清理任务的执行间隔（秒）
		SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
	} `yaml:"booking"`

	SMS struct {
		// 短信网关地址；为空时进入日志直出模式，码只打日志不外发
		GatewayURL string `yaml:"gateway_url"`
		APIKey     string `yaml:"api_key"`
		Sender     string `yaml:"sender"`
	} `yaml:"sms"`

	Telegram struct {
		BotToken           string `yaml:"bot_token"`
		NotificationChatID string `yaml:"notification_chat_id"`
		Stage              string `yaml:"stage"` // DEV 环境下不真正发送
	} `yaml:"telegram"`
}

var currentConfig atomic.Pointer[Config]

// Init 加载配置文件并应用环境变量覆盖。必须在 StartService 之前调用。
func Init() {
	cfg := defaultConfig()

	path := getEnv("CONFIG_PATH", "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			log.Fatalf("FATAL: failed to parse config file %s: %v", path, err)
		}
	} else {
		log.Printf("WARN: config file %s not found, using defaults and environment", path)
	}

	applyEnvOverrides(cfg)
	currentConfig.Store(cfg)
}

// GetCurrentConfig 返回当前生效的配置。
func GetCurrentConfig() *Config {
	cfg := currentConfig.Load()
	if cfg == nil {
		log.Fatal("FATAL: bootstrap.Init() must be called before GetCurrentConfig()")
	}
	return cfg
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Infra.MySQL.DSN = "root:root@tcp(localhost:3306)/banya?charset=utf8mb4&parseTime=True&loc=UTC"
	cfg.Infra.Redis.Addrs = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	cfg.Booking.ConfirmationTimeoutMinutes = 10
	cfg.Booking.MaxDaysAhead = 15
	cfg.Booking.SweepIntervalSeconds = 60
	cfg.Telegram.Stage = "DEV"
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv("MYSQL_DSN"); ok {
		cfg.Infra.MySQL.DSN = v
	}
	if v, ok := os.LookupEnv("REDIS_ADDRS"); ok {
		cfg.Infra.Redis.Addrs = v
	}
	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok {
		cfg.Infra.Kafka.Brokers = splitNonEmpty(v)
	}
	if v, ok := os.LookupEnv("JAEGER_ENDPOINT"); ok {
		cfg.Infra.Jaeger.Endpoint = v
	}
	if v, ok := os.LookupEnv("SMS_GATEWAY_URL"); ok {
		cfg.SMS.GatewayURL = v
	}
	if v, ok := os.LookupEnv("SMS_API_KEY"); ok {
		cfg.SMS.APIKey = v
	}
	if v, ok := os.LookupEnv("SMS_SENDER"); ok {
		cfg.SMS.Sender = v
	}
	if v, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
		cfg.Telegram.BotToken = v
	}
	if v, ok := os.LookupEnv("TELEGRAM_NOTIFICATION_CHAT_ID"); ok {
		cfg.Telegram.NotificationChatID = v
	}
	if v, ok := os.LookupEnv("STAGE"); ok {
		cfg.Telegram.Stage = v
	}
	if v, ok := os.LookupEnv("BOOKING_MAX_DAYS_AHEAD"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Booking.MaxDaysAhead = n
		}
	}
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv 从环境变量中读取配置，不存在时返回默认值。
func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

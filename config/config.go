package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"safewalk"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"safewalk"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	// 只读副本，留空则不启用 dbresolver
	PostgreSQLReplicaHost string `env:"POSTGRESQL_REPLICA_HOST"`
	PostgreSQLReplicaPort string `env:"POSTGRESQL_REPLICA_PORT" envDefault:"5432"`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"swalk"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET" envDefault:"safewalk-dev-jwt-secret"` // 生产环境必须覆盖
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 告警引擎配置
	AlertConfidenceThreshold float64 `env:"ALERT_CONFIDENCE_THRESHOLD" envDefault:"0.8"` // 达到该置信度才进入倒计时
	AlertCountdownSeconds    int     `env:"ALERT_COUNTDOWN_SECONDS" envDefault:"30"`     // 默认撤销窗口
	AlertRecoveryTimeout     int     `env:"ALERT_RECOVERY_TIMEOUT_SECONDS" envDefault:"60"`
	NotifyRecipientTimeout   int     `env:"NOTIFY_RECIPIENT_TIMEOUT_SECONDS" envDefault:"10"` // 单个收件人的投递超时

	// 地理围栏配置
	GeofenceCooldownSeconds int `env:"GEOFENCE_COOLDOWN_SECONDS" envDefault:"300"` // 同类事件去重窗口

	// 实时追踪配置
	TrackingBaseURL string `env:"TRACKING_BASE_URL" envDefault:"https://safewalk.app/track"`

	// 通知服务配置
	// 注意：AccessKey 和 SecretKey 通过阿里云 SDK 的环境变量自动获取
	// 需要设置环境变量：ALIBABA_CLOUD_ACCESS_KEY_ID 和 ALIBABA_CLOUD_ACCESS_KEY_SECRET
	NotifyProvider        string `env:"NOTIFY_PROVIDER" envDefault:"aliyun"` // aliyun, mock
	SMSSignName           string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode       string `env:"SMS_TEMPLATE_CODE"`
	VoiceTTSCode          string `env:"VOICE_TTS_CODE"` // 语音通知 TTS 模板
	VoiceCalledShowNumber string `env:"VOICE_CALLED_SHOW_NUMBER"`

	// 加密配置
	EncryptionKey string `env:"ENCRYPTION_KEY" envDefault:"safewalk-dev-key-0123456789abcde"` // 32字节 AES-256，生产环境必须覆盖
	PhoneHashSalt string `env:"PHONEHASH_SALT" envDefault:"safewalk-dev-salt"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// OpenTelemetry 配置
	OTLPEndpoint string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OTelEnabled  bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelSampler  float64 `env:"OTEL_SAMPLER" envDefault:"0.1"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"` // 每秒请求数
}

func init() {

	if err := godotenv.Load(); err != nil {

		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}

	validateConfig()
}

func validateConfig() {
	if Cfg.Environment == "production" {
		if Cfg.JWTSecret == "safewalk-dev-jwt-secret" {
			log.Fatal("JWT_SECRET must be overridden in production")
		}
		if Cfg.EncryptionKey == "safewalk-dev-key-0123456789abcde" {
			log.Fatal("ENCRYPTION_KEY must be overridden in production")
		}
	}

	if len(Cfg.EncryptionKey) != 32 {
		log.Fatal("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if Cfg.AlertConfidenceThreshold < 0 || Cfg.AlertConfidenceThreshold > 1 {
		log.Fatal("ALERT_CONFIDENCE_THRESHOLD must be within [0, 1]")
	}

	if Cfg.AlertCountdownSeconds <= 0 {
		log.Fatal("ALERT_COUNTDOWN_SECONDS must be positive")
	}

	if Cfg.SMSSignName == "" {
		log.Printf("WARN: SMS_SIGN_NAME is not set, SMS delivery may not work properly")
	}
	if Cfg.SMSTemplateCode == "" {
		log.Printf("WARN: SMS_TEMPLATE_CODE is not set, SMS delivery may not work properly")
	}
	if Cfg.VoiceTTSCode == "" {
		log.Printf("WARN: VOICE_TTS_CODE is not set, voice calls will not work")
	}
}

func (c *Config) GetDSN() string {
	return "host=" + c.PostgreSQLHost +
		" port=" + c.PostgreSQLPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetReplicaDSN() string {
	if c.PostgreSQLReplicaHost == "" {
		return ""
	}
	return "host=" + c.PostgreSQLReplicaHost +
		" port=" + c.PostgreSQLReplicaPort +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

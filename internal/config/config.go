package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/pkg/errors"
)

var config *Config

// Config holds every setting the binaries read. Only this struct may be
// used to hold configuration values; no package reads the environment
// directly.
type Config struct {
	AppEnv              string `env:"APP_ENV,default=dev"`
	AppName             string `env:"APP_NAME,default=hire_gateway"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR,default=:9100"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI,default=/metrics"`

	LogEnv   string `env:"LOG_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL"`

	HttpListenAddr     string        `env:"HTTP_LISTEN_ADDR,default=:8080"`
	HttpRequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT,default=5s"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	PostgresSSLMode         string        `env:"POSTGRES_SSLMODE,default=disable"`
	PostgresConnectTimeout  time.Duration `env:"POSTGRES_CONNECT_TIMEOUT,default=5s"`
	PostgresMaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS,default=20"`
	PostgresMaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS,default=5"`
	PostgresConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME,default=30m"`

	RedisAddr               string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX,default=hire:"`

	PromNamespace string `env:"PROM_NAMESPACE,default=hire_gateway"`

	QueueName              string        `env:"QUEUE_NAME,default=c2b:unmatched"`
	QueueConsumerGroup     string        `env:"QUEUE_CONSUMER_GROUP,default=unmatched-recorders"`
	QueueConsumerName      string        `env:"QUEUE_CONSUMER_NAME"`
	QueueConsumers         int           `env:"QUEUE_CONSUMERS,default=2"`
	QueueMaxRetries        int           `env:"QUEUE_MAX_RETRIES,default=5"`
	QueueVisibilityTimeout time.Duration `env:"QUEUE_VISIBILITY_TIMEOUT,default=30s"`
	QueuePollInterval      time.Duration `env:"QUEUE_POLL_INTERVAL,default=1s"`
	QueueBatchSize         int64         `env:"QUEUE_BATCH_SIZE,default=20"`
	QueueMaxLen            int64         `env:"QUEUE_MAX_LEN,default=100000"`
	QueueEnableDLQ         bool          `env:"QUEUE_ENABLE_DLQ,default=true"`

	OverdueSweepSchedule string        `env:"OVERDUE_SWEEP_SCHEDULE,default=0 */5 * * * *"`
	OverdueSweepLease    time.Duration `env:"OVERDUE_SWEEP_LEASE,default=4m"`

	MpesaConsumerKey     string        `env:"MPESA_CONSUMER_KEY"`
	MpesaConsumerSecret  string        `env:"MPESA_CONSUMER_SECRET"`
	MpesaOAuthURL        string        `env:"MPESA_OAUTH_URL,default=https://sandbox.safaricom.co.ke/oauth/v1/generate"`
	MpesaTokenTimeout    time.Duration `env:"MPESA_TOKEN_TIMEOUT,default=10s"`
	MpesaCallbackTimeout time.Duration `env:"MPESA_CALLBACK_TIMEOUT,default=4s"`

	SandboxListenAddr   string `env:"SANDBOX_LISTEN_ADDR,default=:8090"`
	SandboxCallbackURL  string `env:"SANDBOX_CALLBACK_URL,default=http://localhost:8080/mpesa/c2b/callback/"`
	SandboxDuplicateBps int    `env:"SANDBOX_DUPLICATE_BPS,default=1000"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		if err := godotenv.Load(path); err != nil {
			return errors.Wrapf(err, "failed to load configuration file %s", path)
		}
	}

	if _, err := env.UnmarshalFromEnviron(c); err != nil {
		return errors.Wrap(err, "failed to map env variables to Configuration object")
	}

	config = c
	return nil
}

// Set replaces the loaded configuration; used by tests and the CLI.
func Set(c *Config) {
	config = c
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}

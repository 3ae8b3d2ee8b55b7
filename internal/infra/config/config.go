package config

import (
	"log"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv      string `envconfig:"APP_ENV" default:"dev"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`

	PGDSN     string `envconfig:"PG_DSN"`
	RedisAddr string `envconfig:"REDIS_ADDR"`
	RabbitURL string `envconfig:"RABBITMQ_URL"`

	Discovery struct {
		MaxDistanceKm float64 `envconfig:"DISCOVERY_MAX_DISTANCE_KM" default:"50"`
		PoolLimit     int     `envconfig:"DISCOVERY_POOL_LIMIT" default:"200"`
		UseNearbyPool bool    `envconfig:"DISCOVERY_USE_NEARBY_POOL" default:"false"`
		ActivityMode  string  `envconfig:"DISCOVERY_ACTIVITY_MODE" default:"completeness"`
		Workers       int     `envconfig:"DISCOVERY_WORKERS" default:"2"`
	} `envconfig:""`

	Queue struct {
		VeryCloseKm   float64       `envconfig:"QUEUE_VERY_CLOSE_KM" default:"5"`
		CloseKm       float64       `envconfig:"QUEUE_CLOSE_KM" default:"10"`
		MediumKm      float64       `envconfig:"QUEUE_MEDIUM_KM" default:"20"`
		FarKm         float64       `envconfig:"QUEUE_FAR_KM" default:"50"`
		MaxAge        time.Duration `envconfig:"QUEUE_MAX_AGE" default:"1h"`
		SweepInterval time.Duration `envconfig:"QUEUE_SWEEP_INTERVAL" default:"5m"`
	} `envconfig:""`

	Queues struct {
		DiscoveryJobs string `envconfig:"DISCOVERY_JOBS_KEY" default:"discovery_jobs"`
		ProfileEvents string `envconfig:"PROFILE_EVENTS_QUEUE" default:"profile_events"`
	} `envconfig:""`

	Breaker struct {
		MaxRequests      uint32        `envconfig:"REPO_BREAKER_MAX_REQUESTS" default:"5"`
		Interval         time.Duration `envconfig:"REPO_BREAKER_INTERVAL" default:"30s"`
		Timeout          time.Duration `envconfig:"REPO_BREAKER_TIMEOUT" default:"60s"`
		FailureThreshold float64       `envconfig:"REPO_BREAKER_FAILURE_RATIO" default:"0.6"`
		MinRequests      uint32        `envconfig:"REPO_BREAKER_MIN_REQUESTS" default:"5"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	cfg, err := Parse()
	if err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}

// Parse читает конфиг из окружения и возвращает ошибку вместо завершения процесса.
func Parse() (AppConfig, error) {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

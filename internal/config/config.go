package config

import (
	"fmt"
	"os"
	"time"

	"ielts_prep_backend/internal/engine"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Engine    EngineConfig    `mapstructure:"engine"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// EngineConfig 分析引擎调参，三段都可省略（省略时用引擎默认值）
type EngineConfig struct {
	Readiness      *engine.ReadinessConfig      `mapstructure:"readiness"`
	Weakness       *engine.WeaknessConfig       `mapstructure:"weakness"`
	Recommendation *engine.RecommendationConfig `mapstructure:"recommendation"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("IELTS_PREP")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := validateEngine(&cfg.Engine); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

// validateEngine 配置文件给出的引擎段必须自洽，错的配置直接拒绝加载
func validateEngine(ec *EngineConfig) error {
	if ec.Readiness != nil {
		w := ec.Readiness.Weights
		total := w.OverallScore + w.Consistency + w.Improvement + w.SessionFrequency + w.WeaknessRecovery + w.TimeManagement
		if total <= 0 {
			return fmt.Errorf("engine.readiness.weights must sum to a positive value")
		}
		t := ec.Readiness.Thresholds
		if !(t.Excellent > t.Good && t.Good > t.Fair && t.Fair > 0) {
			return fmt.Errorf("engine.readiness.thresholds must be strictly decreasing and positive")
		}
	}
	if ec.Weakness != nil {
		w := ec.Weakness
		if !(w.CriticalThreshold < w.ModerateThreshold && w.ModerateThreshold < w.SlightThreshold) {
			return fmt.Errorf("engine.weakness thresholds must be strictly increasing")
		}
		if w.MinPlanWeeks > w.MaxPlanWeeks {
			return fmt.Errorf("engine.weakness.min_plan_weeks must not exceed max_plan_weeks")
		}
	}
	if ec.Recommendation != nil {
		r := ec.Recommendation
		if r.MaxRecommendations <= 0 {
			return fmt.Errorf("engine.recommendation.max_recommendations must be positive")
		}
		if r.MinConfidence < 0 || r.MinConfidence > 1 {
			return fmt.Errorf("engine.recommendation.min_confidence must be within [0,1]")
		}
	}
	return nil
}

// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Forecast ForecastConfig
	Reorder  ReorderConfig
	Pipeline PipelineConfig
	Storage  StorageConfig
	Metrics  MetricsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type AppConfig struct {
	LogLevel    string
	ExportDir   string
	AutoMigrate bool
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// ForecastConfig tunes the demand forecast pipeline.
type ForecastConfig struct {
	WindowDays    int
	MinDataPoints int
	Algorithm     string
}

// ReorderConfig tunes the reorder rule engine.
type ReorderConfig struct {
	DefaultDailyDemand float64
	SafetyStockRatio   float64
	LowStockFloor      int
	StockoutBufferDays int
	CostModel          string
	AnnualCarryingRate float64
}

type PipelineConfig struct {
	WorkerCount int
}

// StorageConfig holds the S3-compatible bucket used for suggestion exports.
type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = fromViper(viper.GetViper())

		ensureDir(instance.App.ExportDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "stocksense")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_EXPORT_DIR", "./data/exports")
	v.SetDefault("APP_AUTO_MIGRATE", false)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FORECAST_TTL_SECONDS", 3600)
	v.SetDefault("FORECAST_WINDOW_DAYS", 90)
	v.SetDefault("FORECAST_MIN_DATA_POINTS", 7)
	v.SetDefault("FORECAST_ALGORITHM", "linear_regression_seasonal")
	v.SetDefault("REORDER_DEFAULT_DAILY_DEMAND", 1.0)
	v.SetDefault("REORDER_SAFETY_STOCK_RATIO", 0.2)
	v.SetDefault("REORDER_LOW_STOCK_FLOOR", 5)
	v.SetDefault("REORDER_STOCKOUT_BUFFER_DAYS", 2)
	v.SetDefault("REORDER_COST_MODEL", "order_value")
	v.SetDefault("REORDER_ANNUAL_CARRYING_RATE", 0.25)
	v.SetDefault("PIPELINE_WORKER_COUNT", 1)
	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "stocksense-exports")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		App: AppConfig{
			LogLevel:    v.GetString("LOG_LEVEL"),
			ExportDir:   v.GetString("APP_EXPORT_DIR"),
			AutoMigrate: v.GetBool("APP_AUTO_MIGRATE"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			ForecastTTLSeconds: v.GetInt("CACHE_FORECAST_TTL_SECONDS"),
		},
		Forecast: ForecastConfig{
			WindowDays:    v.GetInt("FORECAST_WINDOW_DAYS"),
			MinDataPoints: v.GetInt("FORECAST_MIN_DATA_POINTS"),
			Algorithm:     v.GetString("FORECAST_ALGORITHM"),
		},
		Reorder: ReorderConfig{
			DefaultDailyDemand: v.GetFloat64("REORDER_DEFAULT_DAILY_DEMAND"),
			SafetyStockRatio:   v.GetFloat64("REORDER_SAFETY_STOCK_RATIO"),
			LowStockFloor:      v.GetInt("REORDER_LOW_STOCK_FLOOR"),
			StockoutBufferDays: v.GetInt("REORDER_STOCKOUT_BUFFER_DAYS"),
			CostModel:          v.GetString("REORDER_COST_MODEL"),
			AnnualCarryingRate: v.GetFloat64("REORDER_ANNUAL_CARRYING_RATE"),
		},
		Pipeline: PipelineConfig{
			WorkerCount: v.GetInt("PIPELINE_WORKER_COUNT"),
		},
		Storage: StorageConfig{
			Enabled:   v.GetBool("STORAGE_ENABLED"),
			Endpoint:  v.GetString("STORAGE_ENDPOINT"),
			AccessKey: v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: v.GetString("STORAGE_SECRET_KEY"),
			Bucket:    v.GetString("STORAGE_BUCKET"),
			Region:    v.GetString("STORAGE_REGION"),
			UseSSL:    v.GetBool("STORAGE_USE_SSL"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("METRICS_ENABLED"),
			Path:    v.GetString("METRICS_PATH"),
		},
	}
}

// URL renders the connection settings as a postgres:// URL, the form
// golang-migrate and the pgx stdlib driver accept.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%s", c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// DSN renders the connection settings in lib/pq key=value form.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func ensureDir(dir string) {
	if dir == "" {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}

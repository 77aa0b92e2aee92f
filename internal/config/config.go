// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/stockcast/internal/domain"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	App      AppConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Analysis AnalysisConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxTx    int64
}

type AppConfig struct {
	UploadDir string
	DataDir   string
}

type CacheConfig struct {
	Enabled         bool
	RedisURL        string
	RedisHost       string
	RedisPort       string
	RedisPassword   string
	RedisDB         int
	ForecastTTLSecs int
	// KeyPrefix namespaces every cache key so several deployments can share
	// one redis database.
	KeyPrefix string
}

// StorageConfig selects where exported result tables are uploaded.
// Provider is "minio", "sevalla" or "" (exports stay local).
type StorageConfig struct {
	Provider  string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Prefix    string
	UseSSL    bool
}

type DriveConfig struct {
	CredentialsFile string
	FolderID        string
	DownloadDir     string
}

// AnalysisConfig carries the default analysis parameters plus the resource
// limits of a run.
type AnalysisConfig struct {
	InterestRate    float64
	LeadTimeDays    float64
	SafetyFraction  float64
	Horizon         int
	Model           string
	Convention      string
	SeasonalPeriods int
	TestSize        int

	Workers        int
	BalanceLimit   int
	FitIterations  int
	FitEvaluations int
	FitTimeout     time.Duration

	ABCHigh       float64
	ABCMid        float64
	XYZLow        float64
	XYZMid        float64
	ServiceFactor float64
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		ensureDir(viper.GetString("APP_UPLOAD_DIR"))
		ensureDir(viper.GetString("APP_DATA_DIR"))

		instance = fromViper()
	})

	return instance
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 30)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_ENABLED", false)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "stockcast")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_TX", 4)

	viper.SetDefault("APP_UPLOAD_DIR", "./data/uploads")
	viper.SetDefault("APP_DATA_DIR", "./data/output")

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 3600)
	viper.SetDefault("CACHE_KEY_PREFIX", "stockcast")

	viper.SetDefault("STORAGE_PROVIDER", "")
	viper.SetDefault("STORAGE_REGION", "us-east-1")
	viper.SetDefault("STORAGE_PREFIX", "analyses")
	viper.SetDefault("STORAGE_USE_SSL", true)

	viper.SetDefault("DRIVE_DOWNLOAD_DIR", "./data/drive")

	d := domain.DefaultParams()
	viper.SetDefault("ANALYSIS_INTEREST_RATE", d.InterestRate)
	viper.SetDefault("ANALYSIS_LEAD_TIME_DAYS", d.LeadTimeDays)
	viper.SetDefault("ANALYSIS_SAFETY_FRACTION", d.SafetyFraction)
	viper.SetDefault("ANALYSIS_HORIZON", d.Horizon)
	viper.SetDefault("ANALYSIS_MODEL", d.Model)
	viper.SetDefault("ANALYSIS_CONVENTION", string(d.Convention))
	viper.SetDefault("ANALYSIS_SEASONAL_PERIODS", d.SeasonalPeriods)
	viper.SetDefault("ANALYSIS_TEST_SIZE", d.TestSize)
	viper.SetDefault("ANALYSIS_WORKERS", 4)
	viper.SetDefault("ANALYSIS_BALANCE_LIMIT", 50)
	viper.SetDefault("ANALYSIS_FIT_ITERATIONS", 200)
	viper.SetDefault("ANALYSIS_FIT_EVALUATIONS", 2000)
	viper.SetDefault("ANALYSIS_FIT_TIMEOUT", "5s")
	viper.SetDefault("ANALYSIS_ABC_HIGH", 100)
	viper.SetDefault("ANALYSIS_ABC_MID", 50)
	viper.SetDefault("ANALYSIS_XYZ_LOW", 0.1)
	viper.SetDefault("ANALYSIS_XYZ_MID", 0.3)
	viper.SetDefault("ANALYSIS_SERVICE_FACTOR", 1.65)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "console")
}

func fromViper() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Mode:           viper.GetString("SERVER_MODE"),
			ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Enabled:  viper.GetBool("DB_ENABLED"),
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
			MaxTx:    viper.GetInt64("DB_MAX_TX"),
		},
		App: AppConfig{
			UploadDir: viper.GetString("APP_UPLOAD_DIR"),
			DataDir:   viper.GetString("APP_DATA_DIR"),
		},
		Cache: CacheConfig{
			Enabled:         viper.GetBool("CACHE_ENABLED"),
			RedisURL:        viper.GetString("REDIS_URL"),
			RedisHost:       viper.GetString("REDIS_HOST"),
			RedisPort:       viper.GetString("REDIS_PORT"),
			RedisPassword:   viper.GetString("REDIS_PASSWORD"),
			RedisDB:         viper.GetInt("REDIS_DB"),
			ForecastTTLSecs: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			KeyPrefix:       viper.GetString("CACHE_KEY_PREFIX"),
		},
		Storage: StorageConfig{
			Provider:  viper.GetString("STORAGE_PROVIDER"),
			Endpoint:  viper.GetString("STORAGE_ENDPOINT"),
			AccessKey: viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey: viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:    viper.GetString("STORAGE_BUCKET"),
			Region:    viper.GetString("STORAGE_REGION"),
			Prefix:    viper.GetString("STORAGE_PREFIX"),
			UseSSL:    viper.GetBool("STORAGE_USE_SSL"),
		},
		Drive: DriveConfig{
			CredentialsFile: viper.GetString("GOOGLE_DRIVE_CREDENTIALS_FILE"),
			FolderID:        viper.GetString("GOOGLE_DRIVE_FOLDER_ID"),
			DownloadDir:     viper.GetString("DRIVE_DOWNLOAD_DIR"),
		},
		Analysis: AnalysisConfig{
			InterestRate:    viper.GetFloat64("ANALYSIS_INTEREST_RATE"),
			LeadTimeDays:    viper.GetFloat64("ANALYSIS_LEAD_TIME_DAYS"),
			SafetyFraction:  viper.GetFloat64("ANALYSIS_SAFETY_FRACTION"),
			Horizon:         viper.GetInt("ANALYSIS_HORIZON"),
			Model:           viper.GetString("ANALYSIS_MODEL"),
			Convention:      viper.GetString("ANALYSIS_CONVENTION"),
			SeasonalPeriods: viper.GetInt("ANALYSIS_SEASONAL_PERIODS"),
			TestSize:        viper.GetInt("ANALYSIS_TEST_SIZE"),
			Workers:         viper.GetInt("ANALYSIS_WORKERS"),
			BalanceLimit:    viper.GetInt("ANALYSIS_BALANCE_LIMIT"),
			FitIterations:   viper.GetInt("ANALYSIS_FIT_ITERATIONS"),
			FitEvaluations:  viper.GetInt("ANALYSIS_FIT_EVALUATIONS"),
			FitTimeout:      viper.GetDuration("ANALYSIS_FIT_TIMEOUT"),
			ABCHigh:         viper.GetFloat64("ANALYSIS_ABC_HIGH"),
			ABCMid:          viper.GetFloat64("ANALYSIS_ABC_MID"),
			XYZLow:          viper.GetFloat64("ANALYSIS_XYZ_LOW"),
			XYZMid:          viper.GetFloat64("ANALYSIS_XYZ_MID"),
			ServiceFactor:   viper.GetFloat64("ANALYSIS_SERVICE_FACTOR"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
	}
}

// Params returns the configured defaults as analysis parameters.
func (a AnalysisConfig) Params() domain.Params {
	return domain.Params{
		InterestRate:    a.InterestRate,
		LeadTimeDays:    a.LeadTimeDays,
		SafetyFraction:  a.SafetyFraction,
		Horizon:         a.Horizon,
		Model:           a.Model,
		Convention:      domain.Convention(a.Convention),
		SeasonalPeriods: a.SeasonalPeriods,
		TestSize:        a.TestSize,
	}
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}

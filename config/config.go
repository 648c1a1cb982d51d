package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		SubmitRateLimit int           `mapstructure:"submitRateLimit"`
	} `mapstructure:"server"`
	Repositories struct {
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Host     string `mapstructure:"host"`
			Port     string `mapstructure:"port"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	Cache struct {
		Driver string        `mapstructure:"driver"`
		TTL    time.Duration `mapstructure:"ttl"`
	} `mapstructure:"cache"`
	Queue struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"queue"`
	Worker struct {
		Concurrency int           `mapstructure:"concurrency"`
		RetryDelay  time.Duration `mapstructure:"retryDelay"`
		MaxRetry    int           `mapstructure:"maxRetry"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"worker"`
	GenAI struct {
		Model       string  `mapstructure:"model"`
		APIKey      string  `mapstructure:"apiKey"`
		Temperature float32 `mapstructure:"temperature"`
	} `mapstructure:"genai"`
	PDF struct {
		Enabled  bool          `mapstructure:"enabled"`
		Bucket   string        `mapstructure:"bucket"`
		Region   string        `mapstructure:"region"`
		Endpoint string        `mapstructure:"endpoint"`
		URLTTL   time.Duration `mapstructure:"urlTTL"`
	} `mapstructure:"pdf"`
	Observability struct {
		MetricsPort       string `mapstructure:"metricsPort"`
		WorkerMetricsPort string `mapstructure:"workerMetricsPort"`
	} `mapstructure:"observability"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// REPOSITORIES_POSTGRES_HOST overrides repositories.postgres.host, and so on.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The Gemini key is usually provided under its well-known name.
	_ = v.BindEnv("genai.apiKey", "GENAI_APIKEY", "GOOGLE_GEMINI_API_KEY", "GOOGLE_API_KEY")

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}
	return config, nil
}

// RedisAddr returns host:port for the redis instance backing the queue and the cache.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Repositories.Redis.Host, c.Repositories.Redis.Port)
}

// Validate reports the first missing piece of configuration needed to run
// the API or the worker.
func (c *Config) Validate() error {
	if c.Repositories.Postgres.Host == "" || c.Repositories.Postgres.DB == "" {
		return errors.New("postgres host and db must be configured")
	}
	if c.Repositories.Redis.Host == "" {
		return errors.New("redis host must be configured")
	}
	switch c.Cache.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown cache driver %q (want redis or memory)", c.Cache.Driver)
	}
	if c.Cache.TTL <= 0 {
		return errors.New("cache ttl must be positive")
	}
	if c.Worker.Concurrency < 1 {
		return errors.New("worker concurrency must be at least 1")
	}
	if p := c.Observability.MetricsPort; p != "" && p == c.Observability.WorkerMetricsPort {
		return errors.New("api and worker metrics ports must differ")
	}
	if c.PDF.Enabled && c.PDF.Bucket == "" {
		return errors.New("pdf export is enabled but no bucket is configured")
	}
	return nil
}

package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	// Tokens maps city code to an API token; the lowest-precedence
	// token source (CLI flag and env var win).
	Tokens  map[string]string `yaml:"tokens" mapstructure:"tokens"`
	Scrape  ScrapeConfig      `yaml:"scrape" mapstructure:"scrape"`
	Results ResultsConfig     `yaml:"results" mapstructure:"results"`
	RunLog  RunLogConfig      `yaml:"runlog" mapstructure:"runlog"`
	Server  ServerConfig      `yaml:"server" mapstructure:"server"`
	Log     LogConfig         `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig tunes the fetch pipeline.
type ScrapeConfig struct {
	PageSize          int     `yaml:"page_size" mapstructure:"page_size"`
	MaxRetries        int     `yaml:"max_retries" mapstructure:"max_retries"`
	RetryDelayMS      int     `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxConcurrent     int     `yaml:"max_concurrent_cities" mapstructure:"max_concurrent_cities"`
}

// ResultsConfig configures the output artifact directory.
type ResultsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// RunLogConfig configures the local run-history database.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CIVIC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.page_size", 50)
	v.SetDefault("scrape.max_retries", 3)
	v.SetDefault("scrape.retry_delay_ms", 500)
	v.SetDefault("scrape.timeout_secs", 30)
	v.SetDefault("scrape.requests_per_second", 5)
	v.SetDefault("scrape.user_agent", "civic-stream/1.0")
	v.SetDefault("scrape.max_concurrent_cities", 3)
	v.SetDefault("results.dir", "results")
	v.SetDefault("runlog.path", "civic-stream.db")
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Token map keys are matched lowercase against city codes.
	if len(cfg.Tokens) > 0 {
		normalized := make(map[string]string, len(cfg.Tokens))
		for code, tok := range cfg.Tokens {
			normalized[strings.ToLower(code)] = tok
		}
		cfg.Tokens = normalized
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

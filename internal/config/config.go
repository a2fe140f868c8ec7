package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration, resolved once at process
// start and injected into everything that needs paths or credentials.
type Config struct {
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Datasets  []DatasetConfig `yaml:"datasets" mapstructure:"datasets"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Reconcile ReconcileConfig `yaml:"reconcile" mapstructure:"reconcile"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// DataConfig names the raw-input and processed-output directories. Relative
// dataset paths are resolved against these.
type DataConfig struct {
	RawDir       string `yaml:"raw_dir" mapstructure:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
}

// DatasetConfig describes one reconcilable dataset (e.g. assignees,
// inventors) and its source files.
type DatasetConfig struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	EntityType  string   `yaml:"entity_type" mapstructure:"entity_type"`
	CountsFile  string   `yaml:"counts_file" mapstructure:"counts_file"`
	CountryFile string   `yaml:"country_file" mapstructure:"country_file"`
	XrefFile    string   `yaml:"xref_file" mapstructure:"xref_file"`
	XrefColumns []string `yaml:"xref_columns" mapstructure:"xref_columns"`
	OutputFile  string   `yaml:"output_file" mapstructure:"output_file"`
}

// OracleConfig configures the external fact-lookup service.
type OracleConfig struct {
	Provider    string `yaml:"provider" mapstructure:"provider"` // "openrouter" or "anthropic"
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Model       string `yaml:"model" mapstructure:"model"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// CacheConfig configures the resolution cache. An empty path disables it.
type CacheConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ReconcileConfig configures pipeline behavior.
type ReconcileConfig struct {
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	Concurrency int    `yaml:"concurrency" mapstructure:"concurrency"`
	Charset     string `yaml:"charset" mapstructure:"charset"`
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
	v.SetEnvPrefix("RECON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.processed_dir", "data/processed")
	v.SetDefault("oracle.provider", "openrouter")
	v.SetDefault("oracle.key", "")
	v.SetDefault("oracle.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("oracle.model", "tngtech/deepseek-r1t2-chimera:free")
	v.SetDefault("oracle.timeout_secs", 60)
	v.SetDefault("cache.path", "data/processed/resolutions.db")
	v.SetDefault("reconcile.batch_size", 20)
	v.SetDefault("reconcile.concurrency", 1)
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

	return &cfg, nil
}

// ValidateOracle checks that the oracle is usable. The credential is a
// startup requirement, not a per-call concern.
func (c *Config) ValidateOracle() error {
	switch c.Oracle.Provider {
	case "openrouter", "anthropic":
	default:
		return eris.Errorf("config: unknown oracle provider %q", c.Oracle.Provider)
	}
	if c.Oracle.Key == "" {
		return eris.New("config: oracle key is required (RECON_ORACLE_KEY)")
	}
	return nil
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

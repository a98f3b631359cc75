// Package config loads run parameters from defaults, an optional YAML file,
// a .env file and ABTEST_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"free-shipping-lab/internal/domain"
	"free-shipping-lab/internal/logging"
)

// EnvPrefix is the prefix of environment overrides, e.g. ABTEST_TREATMENT_THRESHOLD.
const EnvPrefix = "ABTEST"

var validate = validator.New()

// Config is the full run configuration.
type Config struct {
	DataDir    string `mapstructure:"data_dir" validate:"required"`
	ResultsDir string `mapstructure:"results_dir" validate:"required"`

	Experiment ExperimentConfig `mapstructure:"experiment"`
	Segments   SegmentConfig    `mapstructure:"segments"`
	Treatment  TreatmentConfig  `mapstructure:"treatment"`
	Economics  EconomicsConfig  `mapstructure:"economics"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Serve      ServeConfig      `mapstructure:"serve"`
	Logging    logging.Config   `mapstructure:"logging"`
}

// ExperimentConfig drives the power analysis and sampling.
type ExperimentConfig struct {
	Alpha  float64 `mapstructure:"alpha" validate:"gt=0,lt=1"`
	Power  float64 `mapstructure:"power" validate:"gt=0,lt=1"`
	MDEPct float64 `mapstructure:"mde_pct" validate:"gt=0,lte=100"` // percent of baseline mean
	Seed   uint64  `mapstructure:"seed"`
}

// SegmentConfig holds the basket-size segment boundaries.
type SegmentConfig struct {
	SmallMax  float64 `mapstructure:"small_max" validate:"gt=0"`
	MediumMax float64 `mapstructure:"medium_max" validate:"gtfield=SmallMax"`
}

// Bounds converts the config into domain bounds.
func (s SegmentConfig) Bounds() domain.SegmentBounds {
	return domain.SegmentBounds{SmallMax: s.SmallMax, MediumMax: s.MediumMax}
}

// TreatmentConfig parameterizes the customer response model.
type TreatmentConfig struct {
	Threshold    float64 `mapstructure:"threshold" validate:"gt=0"`
	ResponseRate float64 `mapstructure:"response_rate" validate:"gte=0,lte=1"`
	MinAdd       float64 `mapstructure:"min_add" validate:"gte=0"`
	MaxAdd       float64 `mapstructure:"max_add" validate:"gtefield=MinAdd"`
}

// EconomicsConfig holds costs outside the simulated orders.
type EconomicsConfig struct {
	ImplementationCost float64 `mapstructure:"implementation_cost" validate:"gte=0"`
}

// AnalysisConfig tunes optional inference.
type AnalysisConfig struct {
	BootstrapIterations int `mapstructure:"bootstrap_iterations" validate:"gte=0"` // 0 disables
}

// StorageConfig holds optional database sinks. Empty DSN disables the sink.
type StorageConfig struct {
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn" validate:"omitempty,startswith=clickhouse://"`
}

// ServeConfig configures the HTTP scheduler of `abtest serve`.
type ServeConfig struct {
	Addr     string        `mapstructure:"addr" validate:"required"`
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"` // 0 runs once at startup
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data/raw")
	v.SetDefault("results_dir", "results")

	v.SetDefault("experiment.alpha", 0.05)
	v.SetDefault("experiment.power", 0.80)
	v.SetDefault("experiment.mde_pct", 5.0)
	v.SetDefault("experiment.seed", 42)

	v.SetDefault("segments.small_max", 75.0)
	v.SetDefault("segments.medium_max", 150.0)

	v.SetDefault("treatment.threshold", 100.0)
	v.SetDefault("treatment.response_rate", 0.40)
	v.SetDefault("treatment.min_add", 15.0)
	v.SetDefault("treatment.max_add", 35.0)

	v.SetDefault("economics.implementation_cost", 0.0)
	v.SetDefault("analysis.bootstrap_iterations", 0)

	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")

	v.SetDefault("serve.addr", ":8080")
	v.SetDefault("serve.interval", "0s")

	def := logging.DefaultConfig()
	v.SetDefault("logging.level", def.Level)
	v.SetDefault("logging.format", def.Format)
	v.SetDefault("logging.output", def.Output)
	v.SetDefault("logging.development", def.Development)
}

// Default returns the configuration with no file or environment applied.
func Default() *Config {
	cfg, err := decode(newViper())
	if err != nil {
		// defaults are static; a decode failure is a programming error
		panic(err)
	}
	return cfg
}

// Load reads configuration. path may be empty, in which case only defaults,
// .env and environment variables apply.
func Load(path string) (*Config, error) {
	loadEnvFile()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	// serve.interval arrives as "90s" from YAML and the environment.
	err := v.Unmarshal(cfg, viper.DecodeHook(mapstructure.StringToTimeDurationHookFunc()))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// loadEnvFile loads the first .env found in the working directory or its parent.
// A missing file is not an error.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	for _, p := range []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
	} {
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

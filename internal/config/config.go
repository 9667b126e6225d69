package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"dialect-bridge/internal/database/drivers/warehouses"
	"dialect-bridge/internal/storage"
	"dialect-bridge/internal/utils"
)

// EnvPrefix prefixes every environment override, e.g. DIALECT_BRIDGE_SERVER_PORT.
const EnvPrefix = "DIALECT_BRIDGE"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Databricks  DatabricksConfig  `mapstructure:"databricks"`
	Translation TranslationConfig `mapstructure:"translation"`
	Generative  GenerativeConfig  `mapstructure:"generative"`
	Input       InputConfig       `mapstructure:"input"`
	Output      OutputConfig      `mapstructure:"output"`
	Verify      VerifyConfig      `mapstructure:"verify"`
	History     HistoryConfig     `mapstructure:"history"`
	Security    SecurityConfig    `mapstructure:"security"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" validate:"required"`
	Mode string `mapstructure:"mode" validate:"oneof=debug release test"`
	Host string `mapstructure:"host"`
}

// DatabricksConfig locates the warehouse. Host and credentials fall back to
// the named profile of the Databricks CLI config file.
type DatabricksConfig struct {
	Profile        string        `mapstructure:"profile"`
	ConfigFile     string        `mapstructure:"config_file"`
	Host           string        `mapstructure:"host" validate:"required"`
	Token          string        `mapstructure:"token"`
	ClientID       string        `mapstructure:"client_id"`
	ClientSecret   string        `mapstructure:"client_secret" validate:"required_with=ClientID"`
	WarehouseID    string        `mapstructure:"warehouse_id" validate:"required"`
	Catalog        string        `mapstructure:"catalog"`
	Schema         string        `mapstructure:"schema"`
	StartWarehouse bool          `mapstructure:"start_warehouse"`
	StartTimeout   time.Duration `mapstructure:"start_timeout"`
	WaitTimeout    time.Duration `mapstructure:"wait_timeout"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
}

type TranslationConfig struct {
	TargetFormat string `mapstructure:"target_format" validate:"required,oneof=ICEBERG DELTA"`
	PlanLines    int    `mapstructure:"plan_lines" validate:"min=1,max=10"`
	Dialect      string `mapstructure:"dialect" validate:"oneof=auto hive trino"`
}

type GenerativeConfig struct {
	// Backend is "ai_query", "gemini" or "none".
	Backend      string  `mapstructure:"backend" validate:"oneof=ai_query gemini none"`
	Endpoint     string  `mapstructure:"endpoint"`
	GeminiModel  string  `mapstructure:"gemini_model"`
	GeminiAPIKey string  `mapstructure:"gemini_api_key"`
	RPS          float64 `mapstructure:"rps" validate:"min=0"`
	Burst        int     `mapstructure:"burst" validate:"min=0"`
}

type InputConfig struct {
	Dir string `mapstructure:"dir"`
}

type OutputConfig struct {
	// Sink is "dir" or "minio".
	Sink  string      `mapstructure:"sink" validate:"oneof=dir minio"`
	Dir   string      `mapstructure:"dir"`
	MinIO MinIOConfig `mapstructure:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
	Secure    bool   `mapstructure:"secure"`
}

type VerifyConfig struct {
	Fixtures []string `mapstructure:"fixtures"`
	Cleanup  bool     `mapstructure:"cleanup"`
}

type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type SecurityConfig struct {
	JWTSecret          string        `mapstructure:"jwt_secret"`
	JWTExpiration      time.Duration `mapstructure:"jwt_expiration"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" validate:"min=0"`
	RateLimitBurst     int           `mapstructure:"rate_limit_burst" validate:"min=0"`
	EnableAuth         bool          `mapstructure:"enable_auth"`
	EnableRateLimit    bool          `mapstructure:"enable_rate_limit"`
	MaxQueryLength     int           `mapstructure:"max_query_length"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
}

// Options override file and environment values. Empty fields are ignored.
type Options struct {
	ConfigFile string
	Profile    string
	EnvFile    string
}

// Load assembles the configuration from defaults, an optional config file,
// .env, DIALECT_BRIDGE_* variables and the Databricks CLI profile. A config
// that cannot be used to reach a warehouse is a CONFIG_ERROR.
func Load(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	// a missing .env is fine
	_ = godotenv.Load(envFile)

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// the Databricks SDK variables work unprefixed too
	_ = v.BindEnv("databricks.host", EnvPrefix+"_DATABRICKS_HOST", "DATABRICKS_HOST")
	_ = v.BindEnv("databricks.token", EnvPrefix+"_DATABRICKS_TOKEN", "DATABRICKS_TOKEN")
	_ = v.BindEnv("databricks.client_id", EnvPrefix+"_DATABRICKS_CLIENT_ID", "DATABRICKS_CLIENT_ID")
	_ = v.BindEnv("databricks.client_secret", EnvPrefix+"_DATABRICKS_CLIENT_SECRET", "DATABRICKS_CLIENT_SECRET")
	_ = v.BindEnv("databricks.warehouse_id", EnvPrefix+"_DATABRICKS_WAREHOUSE_ID", "DATABRICKS_WAREHOUSE_ID")
	_ = v.BindEnv("generative.gemini_api_key", EnvPrefix+"_GENERATIVE_GEMINI_API_KEY", "GEMINI_API_KEY")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, utils.NewConfigError("error reading config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, utils.NewConfigError("error unmarshaling config", err)
	}
	cfg.Translation.TargetFormat = strings.ToUpper(cfg.Translation.TargetFormat)
	if opts.Profile != "" {
		cfg.Databricks.Profile = opts.Profile
	}

	if err := cfg.Databricks.applyProfile(); err != nil {
		return nil, utils.NewConfigError("error reading Databricks profile", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct constraints and warehouse credentials.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return utils.NewErrorBuilder(utils.ErrCodeConfigError).
				WithDetails("invalid settings: " + strings.Join(fields, ", ")).
				WithCause(err).
				Build()
		}
		return utils.NewConfigError("invalid configuration", err)
	}
	if c.Databricks.Auth().Method() == "none" {
		return utils.NewErrorBuilder(utils.ErrCodeConfigError).
			WithDetails("profile " + c.Databricks.Profile + " has neither a token nor OAuth client credentials").
			Build()
	}
	if c.Output.Sink == "minio" && (c.Output.MinIO.Endpoint == "" || c.Output.MinIO.Bucket == "") {
		return utils.NewErrorBuilder(utils.ErrCodeConfigError).
			WithDetails("output.minio.endpoint and output.minio.bucket are required for the minio sink").
			Build()
	}
	if c.Generative.Backend == "gemini" && c.Generative.GeminiAPIKey == "" {
		return utils.NewErrorBuilder(utils.ErrCodeConfigError).
			WithDetails("generative.gemini_api_key is required for the gemini backend").
			Build()
	}
	return nil
}

// Auth returns the warehouse credentials.
func (d DatabricksConfig) Auth() warehouses.DatabricksAuth {
	return warehouses.DatabricksAuth{Token: d.Token, ClientID: d.ClientID, ClientSecret: d.ClientSecret}
}

// WarehouseConfig converts the settings for the warehouse driver.
func (c *Config) WarehouseConfig() *warehouses.DatabricksConfig {
	return &warehouses.DatabricksConfig{
		WorkspaceURL:   c.Databricks.Host,
		Auth:           c.Databricks.Auth(),
		WarehouseID:    c.Databricks.WarehouseID,
		Catalog:        c.Databricks.Catalog,
		Schema:         c.Databricks.Schema,
		StartWarehouse: c.Databricks.StartWarehouse,
		StartTimeout:   c.Databricks.StartTimeout,
		WaitTimeout:    c.Databricks.WaitTimeout,
		PollInterval:   c.Databricks.PollInterval,
	}
}

// MinIOSinkConfig converts the artifact bucket settings.
func (c *Config) MinIOSinkConfig() storage.MinIOConfig {
	m := c.Output.MinIO
	return storage.MinIOConfig{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		Region:    m.Region,
		Prefix:    m.Prefix,
		Secure:    m.Secure,
	}
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.host", "0.0.0.0")

	// Databricks defaults
	v.SetDefault("databricks.profile", "DEFAULT")
	v.SetDefault("databricks.config_file", "~/.databrickscfg")
	v.SetDefault("databricks.host", "")
	v.SetDefault("databricks.token", "")
	v.SetDefault("databricks.client_id", "")
	v.SetDefault("databricks.client_secret", "")
	v.SetDefault("databricks.warehouse_id", "")
	v.SetDefault("databricks.catalog", "")
	v.SetDefault("databricks.schema", "")
	v.SetDefault("databricks.start_warehouse", false)
	v.SetDefault("databricks.start_timeout", "10m")
	v.SetDefault("databricks.wait_timeout", "30s")
	v.SetDefault("databricks.poll_interval", "1s")

	// Translation defaults
	v.SetDefault("translation.target_format", "ICEBERG")
	v.SetDefault("translation.plan_lines", 5)
	v.SetDefault("translation.dialect", "auto")

	// Generative defaults
	v.SetDefault("generative.backend", "ai_query")
	v.SetDefault("generative.endpoint", "databricks-claude-sonnet-4-5")
	v.SetDefault("generative.gemini_model", "gemini-2.5-flash")
	v.SetDefault("generative.gemini_api_key", "")
	v.SetDefault("generative.rps", 0)
	v.SetDefault("generative.burst", 1)

	// Input/output defaults
	v.SetDefault("input.dir", ".")
	v.SetDefault("output.sink", "dir")
	v.SetDefault("output.dir", "converted")
	v.SetDefault("output.minio.endpoint", "")
	v.SetDefault("output.minio.access_key", "")
	v.SetDefault("output.minio.secret_key", "")
	v.SetDefault("output.minio.bucket", "")
	v.SetDefault("output.minio.region", "")
	v.SetDefault("output.minio.prefix", "dialect-bridge")
	v.SetDefault("output.minio.secure", true)

	// Verifier defaults
	v.SetDefault("verify.fixtures", []string{})
	v.SetDefault("verify.cleanup", true)

	// History defaults
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.host", "localhost")
	v.SetDefault("history.port", "3306")
	v.SetDefault("history.database", "dialect_bridge")
	v.SetDefault("history.username", "dialect_bridge")
	v.SetDefault("history.password", "")

	// Security defaults
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiration", "24h")
	v.SetDefault("security.rate_limit_per_minute", 30)
	v.SetDefault("security.rate_limit_burst", 5)
	v.SetDefault("security.enable_auth", false)
	v.SetDefault("security.enable_rate_limit", true)
	v.SetDefault("security.max_query_length", 200000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

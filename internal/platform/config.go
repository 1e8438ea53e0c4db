package platform

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/itt/pkg/adapters/html"
	"github.com/aretw0/itt/pkg/core"
)

const (
	// ConfigFileName is the config file looked up in the working directory.
	ConfigFileName = "itt.yaml"

	// EnvFileName is loaded into the environment before ITT_* overrides apply.
	EnvFileName = ".env"
)

// Config is the file and environment configuration of the CLI.
type Config struct {
	Adapter       string          `yaml:"adapter" validate:"required,oneof=fs memory mongo postgres"`
	Path          string          `yaml:"path"`
	Key           string          `yaml:"key" validate:"required"`
	Versioning    bool            `yaml:"versioning"`
	ReadOnly      bool            `yaml:"read_only"`
	MaxRetries    int             `yaml:"max_retries" validate:"gte=0,lte=100"`
	FallbackTitle string          `yaml:"fallback_title"`
	MetricsFile   string          `yaml:"metrics_file"`
	Mongo         MongoConfig     `yaml:"mongo"`
	Postgres      PostgresConfig  `yaml:"postgres"`
	Selectors     SelectorsConfig `yaml:"selectors"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database" validate:"required"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// SelectorsConfig overrides the extractor selectors. Empty values keep the defaults.
type SelectorsConfig struct {
	CustomerName string            `yaml:"customer_name"`
	PackageTitle string            `yaml:"package_title"`
	Package      map[string]string `yaml:"package"`
	Hotel        map[string]string `yaml:"hotel"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Adapter:    AdapterFS,
		Path:       ".",
		Key:        core.DefaultKey,
		MaxRetries: core.DefaultMaxRetries,
		Mongo:      MongoConfig{Database: "itt"},
	}
}

// LoadConfig layers defaults, the optional env file, the optional YAML config
// file and ITT_* environment variables, then validates the result. Empty file
// names are skipped; a missing env file is ignored.
func LoadConfig(configFile, envFile string) (Config, error) {
	cfg := DefaultConfig()

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", configFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"ITT_ADAPTER":      &c.Adapter,
		"ITT_PATH":         &c.Path,
		"ITT_KEY":          &c.Key,
		"ITT_MONGO_URI":    &c.Mongo.URI,
		"ITT_MONGO_DB":     &c.Mongo.Database,
		"ITT_POSTGRES_DSN": &c.Postgres.DSN,
		"ITT_METRICS_FILE": &c.MetricsFile,
	}
	for name, dst := range strs {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"ITT_VERSIONING": &c.Versioning,
		"ITT_READ_ONLY":  &c.ReadOnly,
	}
	for name, dst := range bools {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		*dst = b
	}
	return nil
}

var configValidator = newConfigValidator()

func newConfigValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(Config)
		switch c.Adapter {
		case AdapterMongo:
			if c.Mongo.URI == "" {
				sl.ReportError(c.Mongo.URI, "mongo.uri", "URI", "required_for_adapter", c.Adapter)
			}
		case AdapterPostgres:
			if c.Postgres.DSN == "" {
				sl.ReportError(c.Postgres.DSN, "postgres.dsn", "DSN", "required_for_adapter", c.Adapter)
			}
		}
	}, Config{})
	return v
}

// Validate checks the configuration.
func (c Config) Validate() error {
	err := configValidator.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "required_for_adapter" {
			msgs = append(msgs, fmt.Sprintf("%s is required for the %s adapter", fe.Field(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// URI returns the adapter specific location of the store.
func (c Config) URI() string {
	switch c.Adapter {
	case AdapterMongo:
		return c.Mongo.URI
	case AdapterPostgres:
		return c.Postgres.DSN
	default:
		return c.Path
	}
}

// Options converts the configuration into platform options.
func (c Config) Options() []Option {
	storeOpts := []core.Option{
		core.WithKey(c.Key),
		core.WithMaxRetries(c.MaxRetries),
	}
	if c.FallbackTitle != "" {
		storeOpts = append(storeOpts, core.WithFallbackTitle(c.FallbackTitle))
	}

	return []Option{
		WithAdapter(c.Adapter),
		WithVersioning(c.Versioning),
		WithReadOnly(c.ReadOnly),
		WithMongoDatabase(c.Mongo.Database),
		WithStoreOptions(storeOpts...),
	}
}

// HTMLSelectors merges the configured selectors onto the defaults.
func (c Config) HTMLSelectors() html.Selectors {
	sel := html.DefaultSelectors()
	if c.Selectors.CustomerName != "" {
		sel.CustomerName = c.Selectors.CustomerName
	}
	if c.Selectors.PackageTitle != "" {
		sel.PackageTitle = c.Selectors.PackageTitle
	}
	for k, v := range c.Selectors.Package {
		sel.Package[k] = v
	}
	for k, v := range c.Selectors.Hotel {
		sel.Hotel[k] = v
	}
	return sel
}

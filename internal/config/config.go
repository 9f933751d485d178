// Package config collects the service settings from, in increasing priority:
// built-in defaults, an optional JSON file, environment variables (a .env file
// is loaded first when present) and command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the users API.
type Config struct {
	Port               string        `env:"PORT" json:"port" validate:"tcpport"`
	LogLevel           string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	MetricsAddr        string        `env:"METRICS_ADDRESS" json:"metrics_address" validate:"omitempty,hostname_port"`
	MetricsSubnet      string        `env:"METRICS_TRUSTED_SUBNET" json:"metrics_trusted_subnet" validate:"omitempty,cidr"`
	// MetricsTrustProxyHeaders lets the metrics guard read the client address
	// from X-Real-IP / X-Forwarded-For instead of the connection.
	MetricsTrustProxyHeaders Toggle        `env:"METRICS_TRUST_PROXY_HEADERS" json:"metrics_trust_proxy_headers"`
	CORSAllowedOrigins       []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," json:"cors_allowed_origins"`
	EnableGzip               Toggle        `env:"ENABLE_GZIP" json:"enable_gzip"`
	ShutdownTimeout          time.Duration `env:"SHUTDOWN_TIMEOUT" json:"-" validate:"gt=0"`
	ReadHeaderTimeout        time.Duration `env:"READ_HEADER_TIMEOUT" json:"-" validate:"gt=0"`
	ConfigFile               string        `env:"CONFIG" json:"-"`
}

// Toggle is a boolean setting that remembers whether a source set it, so a
// higher-priority source can switch off what a lower one switched on.
type Toggle struct {
	value bool
	set   bool
}

// NewToggle returns a Toggle explicitly set to value.
func NewToggle(value bool) Toggle {
	return Toggle{value: value, set: true}
}

// Enabled reports the value, false when nothing set it.
func (t Toggle) Enabled() bool {
	return t.value
}

// IsSet reports whether any source set the value.
func (t Toggle) IsSet() bool {
	return t.set
}

// Set implements flag.Value.
func (t *Toggle) Set(text string) error {
	value, err := strconv.ParseBool(text)
	if err != nil {
		return err
	}
	*t = NewToggle(value)

	return nil
}

// IsBoolFlag lets the flag be given without a value, as in "-gzip".
func (t *Toggle) IsBoolFlag() bool {
	return true
}

func (t *Toggle) String() string {
	if t == nil {
		return "false"
	}
	return strconv.FormatBool(t.value)
}

// UnmarshalText is used by the environment parser.
func (t *Toggle) UnmarshalText(text []byte) error {
	return t.Set(string(text))
}

func (t *Toggle) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var value bool
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*t = NewToggle(value)

	return nil
}

var defaultConfig = Config{
	Port:              "4000",
	LogLevel:          "info",
	ShutdownTimeout:   10 * time.Second,
	ReadHeaderTimeout: 5 * time.Second,
}

// RunAddr is the address the API server listens on.
func (c *Config) RunAddr() string {
	return ":" + c.Port
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validateTCPPort(fieldLevel validator.FieldLevel) bool {
	port, err := strconv.Atoi(fieldLevel.Field().String())

	return err == nil && port > 0 && port <= 65535
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("tcpport", validateTCPPort)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips the command-line flags, which tests need.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

func applyDefaults(values *Config, defaults Config) {
	if values.Port == "" {
		values.Port = defaults.Port
	}
	if values.LogLevel == "" {
		values.LogLevel = defaults.LogLevel
	}
	if values.ShutdownTimeout == 0 {
		values.ShutdownTimeout = defaults.ShutdownTimeout
	}
	if values.ReadHeaderTimeout == 0 {
		values.ReadHeaderTimeout = defaults.ReadHeaderTimeout
	}
}

func (c *Config) loadJSONFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSONFile(): error while reading %q: %w", fileName, err)
	}

	var fromFile Config
	if err := json.Unmarshal(data, &fromFile); err != nil {
		return fmt.Errorf("in internal/config/config.go/loadJSONFile(): error while parsing %q: %w", fileName, err)
	}

	c.override(fromFile)

	return nil
}

// override copies every non-empty or explicitly set field of src over c.
func (c *Config) override(src Config) {
	if src.Port != "" {
		c.Port = src.Port
	}
	if src.LogLevel != "" {
		c.LogLevel = src.LogLevel
	}
	if src.MetricsAddr != "" {
		c.MetricsAddr = src.MetricsAddr
	}
	if src.MetricsSubnet != "" {
		c.MetricsSubnet = src.MetricsSubnet
	}
	if src.MetricsTrustProxyHeaders.IsSet() {
		c.MetricsTrustProxyHeaders = src.MetricsTrustProxyHeaders
	}
	if len(src.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = src.CORSAllowedOrigins
	}
	if src.EnableGzip.IsSet() {
		c.EnableGzip = src.EnableGzip
	}
	if src.ShutdownTimeout != 0 {
		c.ShutdownTimeout = src.ShutdownTimeout
	}
	if src.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = src.ReadHeaderTimeout
	}
	if src.ConfigFile != "" {
		c.ConfigFile = src.ConfigFile
	}
}

type flagValues struct {
	Config
	corsAllowedOrigins string
}

func parseFlags(args []string) (Config, error) {
	var values flagValues

	flags := flag.NewFlagSet("usersapi", flag.ContinueOnError)
	flags.StringVar(&values.Port, "p", "", "port to run the server on")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.MetricsAddr, "m", "", "address of the Prometheus metrics listener, empty to disable")
	flags.StringVar(&values.MetricsSubnet, "t", "", "trusted subnet (CIDR) allowed to scrape metrics, empty to allow everyone")
	flags.Var(&values.MetricsTrustProxyHeaders, "trust-proxy", "take the metrics client address from X-Real-IP / X-Forwarded-For")
	flags.StringVar(&values.corsAllowedOrigins, "cors", "", "comma separated list of allowed CORS origins")
	flags.Var(&values.EnableGzip, "gzip", "enable gzip compression")
	flags.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")
	if err := flags.Parse(args); err != nil {
		return Config{}, err
	}

	if values.corsAllowedOrigins != "" {
		values.CORSAllowedOrigins = strings.Split(values.corsAllowedOrigins, ",")
	}

	return values.Config, nil
}

// New loads and validates the configuration.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Unable to load .env file: %v", err)
	}

	var valuesFromEnv Config
	if err := env.Parse(&valuesFromEnv); err != nil {
		return nil, err
	}

	var valuesFromFlags Config
	if !options.disableFlagsParsing {
		valuesFromFlags, err = parseFlags(options.args)
		if err != nil {
			return nil, err
		}
	}

	values := defaultConfig

	configFile := valuesFromEnv.ConfigFile
	if valuesFromFlags.ConfigFile != "" {
		configFile = valuesFromFlags.ConfigFile
	}
	if configFile != "" {
		if err := values.loadJSONFile(configFile); err != nil {
			return nil, err
		}
	}

	values.override(valuesFromEnv)
	values.override(valuesFromFlags)
	applyDefaults(&values, defaultConfig)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return &values, nil
}

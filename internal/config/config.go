// Package config provides unified configuration loading for txsim.
// It supports loading from YAML files, a .env file and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nvandessel/txsim/internal/constants"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is read from the working directory when no --config is given.
const DefaultConfigFile = "txsim.yaml"

// SimConfig contains all txsim configuration settings.
type SimConfig struct {
	// Simulation contains the run parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Profiles points at the profile bundle driving the run.
	Profiles ProfilesConfig `json:"profiles" yaml:"profiles"`

	// Output selects the sinks transactions are written to.
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains settings for operational and decision logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig holds the parameters of a single run.
type SimulationConfig struct {
	// Name prefixes every output file of the run.
	Name string `json:"name" yaml:"name"`

	// Seed drives every random draw. Equal seeds give identical runs.
	Seed uint64 `json:"seed" yaml:"seed"`

	// Steps is the number of simulated hours.
	Steps int `json:"steps" yaml:"steps"`

	// Clients is the number of client agents. 0 derives it from the profile
	// bundle's total target count.
	Clients int `json:"clients" yaml:"clients"`

	Merchants int `json:"merchants" yaml:"merchants"`
	Banks     int `json:"banks" yaml:"banks"`

	// TransferLimit caps a single transfer chunk.
	TransferLimit float64 `json:"transfer_limit" yaml:"transfer_limit"`

	// Multiplier scales every step target count.
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`

	// MaxTransactions stops the run once reached. 0 means unlimited.
	MaxTransactions int `json:"max_transactions" yaml:"max_transactions"`

	// FraudShare is the share of clients labelled as fraudulent.
	FraudShare float64 `json:"fraud_share" yaml:"fraud_share"`

	// StepsPerSecond paces the run for streaming sinks. 0 runs unpaced.
	StepsPerSecond float64 `json:"steps_per_second" yaml:"steps_per_second"`
}

// ProfilesConfig locates the profile bundle.
type ProfilesConfig struct {
	// Path is a YAML profile bundle. Empty uses the embedded default bundle.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// OutputConfig selects and configures sinks. A sink is enabled when its
// address is set.
type OutputConfig struct {
	// Dir receives the CSV files, the decision log and the default database.
	Dir string `json:"dir" yaml:"dir"`

	// CSV enables the raw log, aggregate, profile and summary CSV files.
	CSV bool `json:"csv" yaml:"csv"`

	// SQLite is the path of the embedded run database. Empty disables it.
	SQLite string `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`

	// PostgresDSN supports ${VAR} syntax for env vars.
	PostgresDSN string `json:"postgres_dsn,omitempty" yaml:"postgres_dsn,omitempty"`

	KafkaBrokers []string `json:"kafka_brokers,omitempty" yaml:"kafka_brokers,omitempty"`
	KafkaTopic   string   `json:"kafka_topic,omitempty" yaml:"kafka_topic,omitempty"`

	RedisAddr     string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty"`
	RedisStream   string `json:"redis_stream,omitempty" yaml:"redis_stream,omitempty"`

	Neo4jURI      string `json:"neo4j_uri,omitempty" yaml:"neo4j_uri,omitempty"`
	Neo4jUser     string `json:"neo4j_user,omitempty" yaml:"neo4j_user,omitempty"`
	Neo4jPassword string `json:"neo4j_password,omitempty" yaml:"neo4j_password,omitempty"`
	Neo4jDatabase string `json:"neo4j_database,omitempty" yaml:"neo4j_database,omitempty"`
}

// Redact masks a secret. Shows first 4 and last 4 characters, e.g.,
// "post...5432". Returns "" for empty values and "(set)" for values shorter
// than 12 chars.
func Redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) < 12 {
		return "(set)"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// Redacted returns a copy with every secret masked.
func (c OutputConfig) Redacted() OutputConfig {
	c.PostgresDSN = Redact(c.PostgresDSN)
	c.RedisPassword = Redact(c.RedisPassword)
	c.Neo4jPassword = Redact(c.Neo4jPassword)
	return c
}

// String implements fmt.Stringer to prevent accidental secret logging.
func (c OutputConfig) String() string {
	r := c.Redacted()
	return fmt.Sprintf("OutputConfig{Dir:%s, CSV:%t, SQLite:%s, Postgres:%s, Kafka:%v/%s, Redis:%s/%s, Neo4j:%s}",
		r.Dir, r.CSV, r.SQLite, r.PostgresDSN, r.KafkaBrokers, r.KafkaTopic, r.RedisAddr, r.RedisStream, r.Neo4jURI)
}

// LoggingConfig configures txsim's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables decision logging to <output>/decisions.jsonl.
	Level string `json:"level" yaml:"level"`
}

// Default returns a SimConfig with sensible defaults.
func Default() *SimConfig {
	return &SimConfig{
		Simulation: SimulationConfig{
			Name:          "txsim",
			Seed:          constants.DefaultSeed,
			Steps:         constants.DefaultSteps,
			Merchants:     constants.DefaultMerchants,
			Banks:         constants.DefaultBanks,
			TransferLimit: constants.DefaultTransferLimit,
			Multiplier:    1,
			FraudShare:    constants.DefaultFraudShare,
		},
		Output: OutputConfig{
			Dir:         "output",
			CSV:         true,
			KafkaTopic:  "txsim.transactions",
			RedisStream: "txsim:transactions",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> path (or ./txsim.yaml) -> .env -> environment variables.
// An explicit path must exist; the default file is optional.
func Load(path string) (*SimConfig, error) {
	config := Default()

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	}
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		config = fileConfig
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	applyEnvOverrides(config)

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
func LoadFromFile(path string) (*SimConfig, error) {
	config, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	config.Output.PostgresDSN = expandEnvVars(config.Output.PostgresDSN)
	config.Output.RedisPassword = expandEnvVars(config.Output.RedisPassword)
	config.Output.Neo4jPassword = expandEnvVars(config.Output.Neo4jPassword)

	return config, nil
}

// ReadFile parses path over the defaults and leaves ${VAR} references as
// written, so the result can be saved back without leaking secrets.
func ReadFile(path string) (*SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return config, nil
}

// Validate checks that the configuration is valid.
func (c *SimConfig) Validate() error {
	s := c.Simulation
	if s.Name == "" || strings.ContainsAny(s.Name, `/\`) {
		return fmt.Errorf("name must be a non-empty file name, got %q", s.Name)
	}
	if s.Steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", s.Steps)
	}
	if s.Clients < 0 {
		return fmt.Errorf("clients must be non-negative, got %d", s.Clients)
	}
	if s.Merchants <= 0 {
		return fmt.Errorf("merchants must be positive, got %d", s.Merchants)
	}
	if s.Banks <= 0 {
		return fmt.Errorf("banks must be positive, got %d", s.Banks)
	}
	if s.TransferLimit <= 0 {
		return fmt.Errorf("transfer_limit must be positive, got %f", s.TransferLimit)
	}
	if s.Multiplier < 0 {
		return fmt.Errorf("multiplier must be non-negative, got %f", s.Multiplier)
	}
	if s.MaxTransactions < 0 {
		return fmt.Errorf("max_transactions must be non-negative, got %d", s.MaxTransactions)
	}
	if s.FraudShare < 0 || s.FraudShare > 1 {
		return fmt.Errorf("fraud_share must be between 0 and 1, got %f", s.FraudShare)
	}
	if s.StepsPerSecond < 0 {
		return fmt.Errorf("steps_per_second must be non-negative, got %f", s.StepsPerSecond)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output dir is required")
	}
	if len(c.Output.KafkaBrokers) > 0 && c.Output.KafkaTopic == "" {
		return fmt.Errorf("kafka_topic is required when kafka_brokers is set")
	}
	if c.Output.RedisAddr != "" && c.Output.RedisStream == "" {
		return fmt.Errorf("redis_stream is required when redis_addr is set")
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// applyEnvOverrides applies TXSIM_* environment variable overrides to the config.
// Malformed numbers are ignored.
func applyEnvOverrides(config *SimConfig) {
	if v := os.Getenv("TXSIM_NAME"); v != "" {
		config.Simulation.Name = v
	}
	if v := os.Getenv("TXSIM_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			config.Simulation.Seed = n
		}
	}
	setInt("TXSIM_STEPS", &config.Simulation.Steps)
	setInt("TXSIM_CLIENTS", &config.Simulation.Clients)
	setInt("TXSIM_MERCHANTS", &config.Simulation.Merchants)
	setInt("TXSIM_BANKS", &config.Simulation.Banks)
	setInt("TXSIM_MAX_TRANSACTIONS", &config.Simulation.MaxTransactions)
	setFloat("TXSIM_TRANSFER_LIMIT", &config.Simulation.TransferLimit)
	setFloat("TXSIM_MULTIPLIER", &config.Simulation.Multiplier)
	setFloat("TXSIM_FRAUD_SHARE", &config.Simulation.FraudShare)
	setFloat("TXSIM_STEPS_PER_SECOND", &config.Simulation.StepsPerSecond)

	if v := os.Getenv("TXSIM_PROFILES"); v != "" {
		config.Profiles.Path = v
	}

	if v := os.Getenv("TXSIM_OUTPUT_DIR"); v != "" {
		config.Output.Dir = v
	}
	if v := os.Getenv("TXSIM_CSV"); v != "" {
		config.Output.CSV = v == "true" || v == "1"
	}
	if v := os.Getenv("TXSIM_SQLITE"); v != "" {
		config.Output.SQLite = v
	}
	if v := os.Getenv("TXSIM_POSTGRES_DSN"); v != "" {
		config.Output.PostgresDSN = v
	}
	if v := os.Getenv("TXSIM_KAFKA_BROKERS"); v != "" {
		config.Output.KafkaBrokers = splitList(v)
	}
	if v := os.Getenv("TXSIM_KAFKA_TOPIC"); v != "" {
		config.Output.KafkaTopic = v
	}
	if v := os.Getenv("TXSIM_REDIS_ADDR"); v != "" {
		config.Output.RedisAddr = v
	}
	if v := os.Getenv("TXSIM_REDIS_PASSWORD"); v != "" {
		config.Output.RedisPassword = v
	}
	if v := os.Getenv("TXSIM_REDIS_STREAM"); v != "" {
		config.Output.RedisStream = v
	}
	if v := os.Getenv("TXSIM_NEO4J_URI"); v != "" {
		config.Output.Neo4jURI = v
	}
	if v := os.Getenv("TXSIM_NEO4J_USER"); v != "" {
		config.Output.Neo4jUser = v
	}
	if v := os.Getenv("TXSIM_NEO4J_PASSWORD"); v != "" {
		config.Output.Neo4jPassword = v
	}
	if v := os.Getenv("TXSIM_NEO4J_DATABASE"); v != "" {
		config.Output.Neo4jDatabase = v
	}

	if v := os.Getenv("TXSIM_LOG_LEVEL"); v != "" {
		config.Logging.Level = v
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

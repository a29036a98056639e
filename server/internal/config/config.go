package config

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tvsegment/tvsegment/server/internal/pipeline"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort      = 8501
	DefaultGRPCPort      = 50051
	DefaultArtifactsDir  = "artifacts"
	DefaultModelFile     = "kmeans_model.yaml"
	DefaultScalerFile    = "scaler.yaml"
	DefaultPopularity    = 10.0
	DefaultVoteAverage   = 7.5
	DefaultVoteCount     = 100
	DefaultPlotRadius    = 3.0
	DefaultAlertCooldown = 15 * time.Minute
	DefaultLogLevel      = "info"
)

// Config is the full configuration parsed from config.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`

	// Clusters maps model labels to their human-facing meaning. The mapping is
	// tied to the fitted model and must be updated whenever it is retrained.
	Clusters []Cluster `yaml:"clusters"`

	Form   FormConfig   `yaml:"form"`
	Plot   PlotConfig   `yaml:"plot"`
	Alerts AlertsConfig `yaml:"alerts"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds listener and authentication settings.
type ServerConfig struct {
	// HTTPPort serves the form, the JSON API and /metrics (default 8501).
	HTTPPort int `yaml:"http_port"`

	// GRPCPort serves the grpc.health.v1 service (default 50051).
	// Set to -1 to disable the gRPC listener.
	GRPCPort int `yaml:"grpc_port"`

	Auth AuthConfig `yaml:"auth"`
}

// AuthConfig controls API key checks on the JSON API and gRPC listener.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header / gRPC metadata key. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// ArtifactsConfig locates the fitted scaler and model.
type ArtifactsConfig struct {
	Dir        string `yaml:"dir"`
	ModelFile  string `yaml:"model_file"`
	ScalerFile string `yaml:"scaler_file"`
}

// Cluster is one entry of the label interpretation table.
type Cluster struct {
	Label       int    `yaml:"label"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// FormConfig holds the initial values shown in the input form.
type FormConfig struct {
	Popularity  float64 `yaml:"popularity"`
	VoteAverage float64 `yaml:"vote_average"`
	VoteCount   int64   `yaml:"vote_count"`
}

// PlotConfig controls the result chart.
type PlotConfig struct {
	// Radius is the half-width of the viewing window centred on the input.
	Radius float64 `yaml:"radius"`
}

// AlertsConfig holds webhook delivery targets for prediction anomalies.
type AlertsConfig struct {
	// Cooldown suppresses repeat notifications for the same condition.
	Cooldown time.Duration   `yaml:"cooldown"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LogConfig sets the slog level.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// DefaultClusters is the interpretation shipped with the reference model.
func DefaultClusters() []Cluster {
	return []Cluster{
		{
			Label:       0,
			Name:        "Niche / Hidden Gem",
			Description: "Good rating but low popularity. Needs a more aggressive marketing strategy.",
			Color:       "blue",
		},
		{
			Label:       1,
			Name:        "Global Blockbuster",
			Description: "Very popular, highly rated, massive engagement. Keep the quality up.",
			Color:       "green",
		},
		{
			Label:       2,
			Name:        "Low Traction",
			Description: "Low rating and little popularity. The content needs re-evaluation.",
			Color:       "red",
		},
	}
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, applying defaults and validation.
func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}
	if len(cfg.Clusters) == 0 {
		cfg.Clusters = DefaultClusters()
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.Clusters = DefaultClusters()
	return cfg
}

// defaults returns a Config pre-populated with default values.
// Clusters are filled in after unmarshalling so a file that lists its own
// clusters replaces the defaults instead of merging with them.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			GRPCPort: DefaultGRPCPort,
		},
		Artifacts: ArtifactsConfig{
			Dir:        DefaultArtifactsDir,
			ModelFile:  DefaultModelFile,
			ScalerFile: DefaultScalerFile,
		},
		Form: FormConfig{
			Popularity:  DefaultPopularity,
			VoteAverage: DefaultVoteAverage,
			VoteCount:   DefaultVoteCount,
		},
		Plot:   PlotConfig{Radius: DefaultPlotRadius},
		Alerts: AlertsConfig{Cooldown: DefaultAlertCooldown},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPCPort != -1 && (cfg.Server.GRPCPort <= 0 || cfg.Server.GRPCPort > 65535) {
		return fmt.Errorf("server.grpc_port %d is out of range [1, 65535] (use -1 to disable)", cfg.Server.GRPCPort)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}

	if cfg.Artifacts.ModelFile == "" {
		return fmt.Errorf("artifacts.model_file is required")
	}
	if cfg.Artifacts.ScalerFile == "" {
		return fmt.Errorf("artifacts.scaler_file is required")
	}

	seen := make(map[int]bool, len(cfg.Clusters))
	for i, c := range cfg.Clusters {
		if c.Name == "" {
			return fmt.Errorf("clusters[%d]: name is required", i)
		}
		if seen[c.Label] {
			return fmt.Errorf("clusters[%d] %q: duplicate label %d", i, c.Name, c.Label)
		}
		seen[c.Label] = true
	}

	f := cfg.Form
	if !finite(f.Popularity) || f.Popularity < 0 {
		return fmt.Errorf("form.popularity %v must be a finite, non-negative number", f.Popularity)
	}
	if !finite(f.VoteAverage) || f.VoteAverage < 0 || f.VoteAverage > 10 {
		return fmt.Errorf("form.vote_average %v is out of range [0, 10]", f.VoteAverage)
	}
	if f.VoteCount < 0 {
		return fmt.Errorf("form.vote_count must not be negative")
	}

	if !finite(cfg.Plot.Radius) || cfg.Plot.Radius <= 0 {
		return fmt.Errorf("plot.radius %v must be a finite, positive number", cfg.Plot.Radius)
	}

	if cfg.Alerts.Cooldown < 0 {
		return fmt.Errorf("alerts.cooldown must not be negative")
	}
	for i, wh := range cfg.Alerts.Webhooks {
		switch wh.Type {
		case "teams", "slack", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, wh.Type)
		}
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q unknown: want debug|info|warn|error", cfg.Log.Level)
	}
	return nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Interpretations converts the cluster table for the pipeline.
func (c *Config) Interpretations() []pipeline.Interpretation {
	out := make([]pipeline.Interpretation, 0, len(c.Clusters))
	for _, cl := range c.Clusters {
		out = append(out, pipeline.Interpretation{
			Label:       pipeline.Label(cl.Label),
			Name:        cl.Name,
			Description: cl.Description,
			Color:       cl.Color,
		})
	}
	return out
}

// SlogLevel maps Log.Level to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

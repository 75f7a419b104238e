// Package config loads and validates sync configuration via Viper.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// Storage providers accepted by storage.provider.
const (
	StorageNone  = "none"
	StorageLocal = "local"
	StorageGCS   = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	DB      DBConfig      `mapstructure:"db"`
	Event   EventConfig   `mapstructure:"event"`
	Storage StorageConfig `mapstructure:"storage"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig locates project repositories and the files read from them.
type SourceConfig struct {
	APIBase         string `mapstructure:"api_base"`
	RawBase         string `mapstructure:"raw_base"`
	RepoBase        string `mapstructure:"repo_base"`
	RepoNamePattern string `mapstructure:"repo_name_pattern"`
	Token           string `mapstructure:"token"`
	DescriptionFile string `mapstructure:"description_file"`
	ConfigFile      string `mapstructure:"config_file"`
	BranchesPerPage int    `mapstructure:"branches_per_page"`
	MaxBranchPages  int    `mapstructure:"max_branch_pages"`
}

// HTTPConfig configures the outbound HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// EventConfig describes the hackathon being synced. Map keys are project ids.
type EventConfig struct {
	VideoURL     string            `mapstructure:"video_url"`
	NProjects    int               `mapstructure:"n_projects"`
	Timestamps   map[string]int    `mapstructure:"timestamps"`
	Tracks       map[string]string `mapstructure:"tracks"`
	DefaultTrack string            `mapstructure:"default_track"`
}

// StorageConfig selects where record snapshots are archived.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	BaseDir   string `mapstructure:"base_dir"`
	Prefix    string `mapstructure:"prefix"`
}

// PubSubConfig holds metadata for sync notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// Enabled reports whether sync events should be published.
func (p PubSubConfig) Enabled() bool {
	return p.ProjectID != "" && p.TopicName != ""
}

// WorkerConfig bounds how many projects sync at once.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// ServerConfig controls HTTP server behavior. When APIKey is set, /v1 routes
// require it in X-API-Key.
type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the optional log file.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	File        string `mapstructure:"file"`
}

// legacyEnv maps config keys to the variable names older deployments used.
var legacyEnv = map[string]string{
	"event.n_projects": "N_PROJECTS",
	"event.video_url":  "VIDEO_URL",
	"event.timestamps": "PROJECTS_TIMESTAMPS",
	"event.tracks":     "PROJECTS_TRACKS",
	"db.dsn":           "POSTGRES_CONN_URL",
	"source.token":     "GITHUB_TOKEN",
}

const envPrefix = "SHOWCASE"

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	for key, legacy := range legacyEnv {
		prefixed := envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", legacy, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		jsonStringToMapHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// jsonStringToMapHook lets map-valued keys arrive from the environment as JSON objects.
func jsonStringToMapHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Map {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode JSON object: %w", err)
	}
	return out, nil
}

func setDefaults(v *viper.Viper) {
	hosts := showcase.DefaultHosts()
	v.SetDefault("source.api_base", hosts.APIBase)
	v.SetDefault("source.raw_base", hosts.RawBase)
	v.SetDefault("source.repo_base", hosts.RepoBase)
	v.SetDefault("source.repo_name_pattern", hosts.RepoNamePattern)
	v.SetDefault("source.token", "")
	v.SetDefault("source.description_file", "vote-description.md")
	v.SetDefault("source.config_file", "hack-project.jsonc")
	v.SetDefault("source.branches_per_page", 100)
	v.SetDefault("source.max_branch_pages", 10)
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.user_agent", "showcase-sync/0.1")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.table", "projects")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("event.video_url", "")
	v.SetDefault("event.n_projects", 0)
	v.SetDefault("event.timestamps", map[string]int{})
	v.SetDefault("event.tracks", map[string]string{})
	v.SetDefault("event.default_track", showcase.DefaultTrack)
	v.SetDefault("storage.provider", StorageNone)
	v.SetDefault("storage.prefix", "snapshots")
	v.SetDefault("pubsub.project_id", "")
	v.SetDefault("pubsub.topic_name", "")
	v.SetDefault("worker.concurrency", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.file", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be > 0")
	}
	if c.Source.APIBase == "" || c.Source.RawBase == "" || c.Source.RepoBase == "" {
		return fmt.Errorf("source.api_base, source.raw_base and source.repo_base are required")
	}
	if !strings.Contains(c.Source.RepoNamePattern, "%d") {
		return fmt.Errorf("source.repo_name_pattern must contain %%d")
	}
	if c.Source.BranchesPerPage <= 0 {
		return fmt.Errorf("source.branches_per_page must be > 0")
	}
	if c.Event.NProjects < 0 {
		return fmt.Errorf("event.n_projects must be >= 0")
	}
	for key := range c.Event.Timestamps {
		if _, err := parseProjectID(key); err != nil {
			return fmt.Errorf("event.timestamps: %w", err)
		}
	}
	for key := range c.Event.Tracks {
		if _, err := parseProjectID(key); err != nil {
			return fmt.Errorf("event.tracks: %w", err)
		}
	}
	switch c.Storage.Provider {
	case StorageNone, "":
	case StorageLocal:
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir is required for the local provider")
		}
	case StorageGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("storage.provider %q is not one of none, local, gcs", c.Storage.Provider)
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicName == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set together")
	}
	return nil
}

// ValidateSync checks the extra settings a database sync needs.
func (c Config) ValidateSync() error {
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn is required to sync")
	}
	if c.Event.VideoURL == "" {
		return fmt.Errorf("event.video_url is required to sync")
	}
	return nil
}

func parseProjectID(key string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("project id %q must be a positive integer", key)
	}
	return id, nil
}

// Hosts returns the repository host layout.
func (c Config) Hosts() showcase.Hosts {
	return showcase.Hosts{
		APIBase:         c.Source.APIBase,
		RawBase:         c.Source.RawBase,
		RepoBase:        c.Source.RepoBase,
		RepoNamePattern: c.Source.RepoNamePattern,
	}
}

// HTTPTimeout converts the configured timeout to a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ProjectIDs returns 1..event.n_projects.
func (c Config) ProjectIDs() []int {
	ids := make([]int, 0, c.Event.NProjects)
	for id := 1; id <= c.Event.NProjects; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Timestamp returns the video offset in seconds for a project.
func (c Config) Timestamp(projectID int) (int, bool) {
	ts, ok := c.Event.Timestamps[strconv.Itoa(projectID)]
	return ts, ok
}

// Track returns the configured track for a project.
func (c Config) Track(projectID int) (string, bool) {
	track, ok := c.Event.Tracks[strconv.Itoa(projectID)]
	if !ok || track == "" {
		return "", false
	}
	return track, true
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://github.com/platanus-hack", cfg.Source.RepoBase)
	assert.Equal(t, "team-%d", cfg.Source.RepoNamePattern)
	assert.Equal(t, "vote-description.md", cfg.Source.DescriptionFile)
	assert.Equal(t, "hack-project.jsonc", cfg.Source.ConfigFile)
	assert.Equal(t, 100, cfg.Source.BranchesPerPage)
	assert.Equal(t, "projects", cfg.DB.Table)
	assert.Equal(t, "Unspecified", cfg.Event.DefaultTrack)
	assert.Equal(t, StorageNone, cfg.Storage.Provider)
	assert.Equal(t, 1, cfg.Worker.Concurrency)
	assert.False(t, cfg.PubSub.Enabled())
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout())
	assert.Empty(t, cfg.ProjectIDs())
}

func TestLoadWithFileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
source:
  repo_base: https://git.example.com/acme
  repo_name_pattern: proj-%d
  token: file-token
http:
  timeout_seconds: 45
  user_agent: tester
db:
  dsn: postgres://localhost/showcase
  table: showcase_projects
event:
  video_url: https://youtube.com/watch?v=abc
  n_projects: 3
  timestamps:
    "1": 120
    "3": 305
  tracks:
    "1": fintech
storage:
  provider: local
  base_dir: /tmp/snapshots
pubsub:
  project_id: proj
  topic_name: synced
logging:
  development: false
  file: /var/log/showcase.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "proj-%d", cfg.Hosts().RepoNamePattern)
	assert.Equal(t, "https://git.example.com/acme", cfg.Hosts().RepoBase)
	assert.Equal(t, "file-token", cfg.Source.Token)
	assert.Equal(t, 45*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "showcase_projects", cfg.DB.Table)
	assert.Equal(t, []int{1, 2, 3}, cfg.ProjectIDs())
	assert.True(t, cfg.PubSub.Enabled())
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, "/var/log/showcase.log", cfg.Logging.File)

	ts, ok := cfg.Timestamp(3)
	require.True(t, ok)
	assert.Equal(t, 305, ts)
	_, ok = cfg.Timestamp(2)
	assert.False(t, ok)

	track, ok := cfg.Track(1)
	require.True(t, ok)
	assert.Equal(t, "fintech", track)
	_, ok = cfg.Track(3)
	assert.False(t, ok)

	require.NoError(t, cfg.ValidateSync())
}

func TestLoadLegacyEnvironment(t *testing.T) {
	t.Setenv("N_PROJECTS", "2")
	t.Setenv("VIDEO_URL", "https://youtube.com/watch?v=legacy")
	t.Setenv("POSTGRES_CONN_URL", "postgres://legacy/db")
	t.Setenv("PROJECTS_TIMESTAMPS", `{"1": 10, "2": 20}`)
	t.Setenv("PROJECTS_TRACKS", `{"2": "health"}`)
	t.Setenv("GITHUB_TOKEN", "legacy-token")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Event.NProjects)
	assert.Equal(t, "https://youtube.com/watch?v=legacy", cfg.Event.VideoURL)
	assert.Equal(t, "postgres://legacy/db", cfg.DB.DSN)
	assert.Equal(t, "legacy-token", cfg.Source.Token)
	assert.Equal(t, map[string]int{"1": 10, "2": 20}, cfg.Event.Timestamps)
	track, ok := cfg.Track(2)
	require.True(t, ok)
	assert.Equal(t, "health", track)
}

func TestLoadPrefixedEnvironmentWins(t *testing.T) {
	t.Setenv("SHOWCASE_DB_DSN", "postgres://prefixed/db")
	t.Setenv("POSTGRES_CONN_URL", "postgres://legacy/db")
	t.Setenv("SHOWCASE_SERVER_PORT", "9191")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://prefixed/db", cfg.DB.DSN)
	assert.Equal(t, 9191, cfg.Server.Port)
}

func TestLoadRejectsBadTimestampJSON(t *testing.T) {
	t.Setenv("PROJECTS_TIMESTAMPS", `{"1": `)

	_, err := Load("")
	require.ErrorContains(t, err, "unmarshal config")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorContains(t, err, "read config")
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Source: SourceConfig{
			APIBase:         "https://api.example.com",
			RawBase:         "https://raw.example.com",
			RepoBase:        "https://example.com",
			RepoNamePattern: "team-%d",
			BranchesPerPage: 100,
		},
		Server: ServerConfig{Port: 8080},
		HTTP:   HTTPConfig{TimeoutSeconds: 10},
		Worker: WorkerConfig{Concurrency: 1},
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 0 }, want: "server.port"},
		{name: "invalid timeout", mutate: func(c *Config) { c.HTTP.TimeoutSeconds = 0 }, want: "http.timeout_seconds"},
		{name: "invalid concurrency", mutate: func(c *Config) { c.Worker.Concurrency = 0 }, want: "worker.concurrency"},
		{name: "missing host", mutate: func(c *Config) { c.Source.RawBase = "" }, want: "source.raw_base"},
		{name: "pattern without id", mutate: func(c *Config) { c.Source.RepoNamePattern = "team" }, want: "repo_name_pattern"},
		{name: "page size", mutate: func(c *Config) { c.Source.BranchesPerPage = 0 }, want: "branches_per_page"},
		{name: "negative projects", mutate: func(c *Config) { c.Event.NProjects = -1 }, want: "event.n_projects"},
		{name: "bad timestamp key", mutate: func(c *Config) { c.Event.Timestamps = map[string]int{"x": 1} }, want: "event.timestamps"},
		{name: "bad track key", mutate: func(c *Config) { c.Event.Tracks = map[string]string{"0": "a"} }, want: "event.tracks"},
		{name: "local without dir", mutate: func(c *Config) { c.Storage.Provider = StorageLocal }, want: "storage.base_dir"},
		{name: "gcs without bucket", mutate: func(c *Config) { c.Storage.Provider = StorageGCS }, want: "storage.gcs_bucket"},
		{name: "unknown provider", mutate: func(c *Config) { c.Storage.Provider = "s3" }, want: "storage.provider"},
		{name: "half pubsub", mutate: func(c *Config) { c.PubSub.ProjectID = "p" }, want: "pubsub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := base
			tt.mutate(&c)
			assert.ErrorContains(t, c.Validate(), tt.want)
		})
	}
}

func TestValidateSync(t *testing.T) {
	t.Parallel()

	assert.ErrorContains(t, Config{}.ValidateSync(), "db.dsn")
	assert.ErrorContains(t, Config{DB: DBConfig{DSN: "postgres://x"}}.ValidateSync(), "event.video_url")
}

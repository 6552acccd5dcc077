package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file looked up when --config is not given.
const DefaultConfigFile = "docpublisher.yaml"

// Config represents the application configuration.
type Config struct {
	// Repository identifies the source of the published pages. Empty means
	// "derive from the git origin of Source.Dir".
	Repository string           `yaml:"repository,omitempty"`
	SiteName   string           `yaml:"site_name,omitempty"`
	Source     SourceConfig     `yaml:"source"`
	Confluence ConfluenceConfig `yaml:"confluence"`
	Publish    PublishConfig    `yaml:"publish"`
	Journal    JournalConfig    `yaml:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Notify     NotifyConfig     `yaml:"notify"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SourceConfig locates the local documentation tree.
type SourceConfig struct {
	Dir        string   `yaml:"dir"`
	MkDocsFile string   `yaml:"mkdocs_file"`
	DocsDir    string   `yaml:"docs_dir,omitempty"` // relative to Dir; defaults to mkdocs docs_dir
	IndexFiles []string `yaml:"index_files,omitempty"`
	HomeFiles  []string `yaml:"home_files,omitempty"`
}

// ConfluenceConfig describes the remote page store.
type ConfluenceConfig struct {
	BaseURL     string        `yaml:"base_url"`
	SpaceKey    string        `yaml:"space_key"`
	Username    string        `yaml:"username"`
	APIToken    string        `yaml:"api_token"`
	ParentPage  string        `yaml:"parent_page,omitempty"`
	TitlePrefix string        `yaml:"title_prefix,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Retry       RetryConfig   `yaml:"retry"`
}

// RetryConfig configures retries of transient remote failures.
type RetryConfig struct {
	Mode       string        `yaml:"mode,omitempty"`
	Initial    time.Duration `yaml:"initial,omitempty"`
	Max        time.Duration `yaml:"max,omitempty"`
	MaxRetries int           `yaml:"max_retries"`
}

// PublishConfig tunes the reconciliation run.
type PublishConfig struct {
	// Concurrency bounds the fan-out across sibling pages within one level.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// JournalConfig enables the sqlite run journal when Path is set.
type JournalConfig struct {
	Path string `yaml:"path,omitempty"`
}

// MetricsConfig controls Prometheus export.
type MetricsConfig struct {
	Textfile   string `yaml:"textfile,omitempty"`
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// NotifyConfig enables run notifications over NATS JetStream when NATSURL is set.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// DaemonConfig controls the long-running publish loop.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval,omitempty"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigError("configuration file not found").
				WithContext("path", configPath).
				Build()
		}
		return nil, errors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.ConfigError("failed to parse configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return cfg, nil
}

// Parse decodes YAML configuration after environment expansion and applies defaults.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Config{
		Source: SourceConfig{Dir: ".", MkDocsFile: "mkdocs.yml"},
		Confluence: ConfluenceConfig{
			BaseURL:  "https://example.atlassian.net/wiki",
			SpaceKey: "DOCS",
			Username: "${CONFLUENCE_USERNAME}",
			APIToken: "${CONFLUENCE_API_TOKEN}",
			Retry:    RetryConfig{Mode: DefaultRetryMode, MaxRetries: 2},
		},
		Publish: PublishConfig{Concurrency: 4},
		Notify:  NotifyConfig{Subject: DefaultNotifySubject},
		Daemon:  DaemonConfig{Interval: time.Hour, Watch: true},
		Logging: LoggingConfig{Level: string(LogLevelInfo), Format: string(LogFormatText)},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// #nosec G306 -- configuration file is meant to be user-readable
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.FileSystemError("failed to write configuration file").
			WithCause(err).
			WithContext("path", configPath).
			Build()
	}
	return nil
}

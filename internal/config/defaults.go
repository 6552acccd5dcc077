package config

import "time"

// DefaultNotifySubject is the NATS subject run summaries are published to.
const DefaultNotifySubject = "docpublisher.runs"

// DefaultRetryMode is the backoff used when confluence.retry.mode is unset.
const DefaultRetryMode = "exponential"

// ApplyDefaults fills zero values with their defaults. It is idempotent.
func (c *Config) ApplyDefaults() {
	if c.Source.Dir == "" {
		c.Source.Dir = "."
	}
	if c.Source.MkDocsFile == "" {
		c.Source.MkDocsFile = "mkdocs.yml"
	}
	if len(c.Source.IndexFiles) == 0 {
		c.Source.IndexFiles = []string{"README.md", "index.md"}
	}
	if len(c.Source.HomeFiles) == 0 {
		c.Source.HomeFiles = []string{"index.md", "README.md"}
	}

	if c.Confluence.Timeout <= 0 {
		c.Confluence.Timeout = 30 * time.Second
	}
	if c.Confluence.Retry.Mode == "" {
		c.Confluence.Retry.Mode = DefaultRetryMode
	}
	if c.Confluence.Retry.Initial <= 0 {
		c.Confluence.Retry.Initial = time.Second
	}
	if c.Confluence.Retry.Max <= 0 {
		c.Confluence.Retry.Max = 30 * time.Second
	}
	if c.Confluence.Retry.MaxRetries < 0 {
		c.Confluence.Retry.MaxRetries = 0
	}

	if c.Publish.Concurrency <= 0 {
		c.Publish.Concurrency = 4
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = DefaultNotifySubject
	}
	if c.Daemon.Interval <= 0 {
		c.Daemon.Interval = time.Hour
	}
	if c.Daemon.Debounce <= 0 {
		c.Daemon.Debounce = 2 * time.Second
	}

	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
}

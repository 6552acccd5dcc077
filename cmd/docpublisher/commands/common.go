package commands

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/metrics"
	"git.home.luguber.info/inful/docpublisher/internal/notify"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

// Global carries state shared by all commands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"docpublisher.yaml" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Publish PublishCmd `cmd:"" help:"Publish the navigation tree to Confluence"`
	Cleanup CleanupCmd `cmd:"" help:"Delete the published page tree from Confluence"`
	Tree    TreeCmd    `cmd:"" help:"Print the local page tree without contacting Confluence"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	History HistoryCmd `cmd:"" help:"List recent runs from the journal"`
	Daemon  DaemonCmd  `cmd:"" help:"Publish periodically and on source changes"`
}

// AfterApply sets up a default logger before the configuration is read.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = config.LoggingConfig{}.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(g.Logger)
	return nil
}

// session is a loaded configuration plus the collaborators derived from it.
type session struct {
	cfg       *config.Config
	configDir string
	logger    *slog.Logger
	recorder  *metrics.PrometheusRecorder
	closers   []func() error
}

// openSession loads the configuration and replaces the global logger with
// one honoring logging.level and logging.format.
func openSession(g *Global, root *CLI) (*session, error) {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return nil, err
	}
	g.Logger = cfg.Logging.NewLogger(os.Stderr, root.Verbose)
	slog.SetDefault(g.Logger)
	return &session{cfg: cfg, configDir: filepath.Dir(root.Config), logger: g.Logger}, nil
}

// service wires the optional journal, metrics and notifications configured
// for this session into a run service.
func (s *session) service() (*runner.DefaultService, error) {
	svc := runner.NewService(s.logger)

	if s.cfg.Metrics.Textfile != "" || s.cfg.Metrics.ListenAddr != "" {
		s.recorder = metrics.NewPrometheusRecorder(nil)
		svc.WithMetrics(s.recorder)
	}
	if s.cfg.Journal.Path != "" {
		journal, err := s.openJournal()
		if err != nil {
			return nil, err
		}
		svc.WithJournal(journal)
	}
	if s.cfg.Notify.NATSURL != "" {
		n, err := notify.Connect(s.cfg.Notify, s.logger)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, n.Close)
		svc.WithNotifier(n)
	}
	return svc, nil
}

func (s *session) openJournal() (*eventstore.SQLiteStore, error) {
	path := s.cfg.Journal.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.configDir, path)
	}
	journal, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, journal.Close)
	return journal, nil
}

func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("Failed to release resource", logfields.Error(err))
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

package runner

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/confluence"
	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/metrics"
	"git.home.luguber.info/inful/docpublisher/internal/notify"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/publish"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
	"git.home.luguber.info/inful/docpublisher/internal/render"
)

// StoreFactory creates the remote store for a run.
type StoreFactory func(cfg *config.Config, logger *slog.Logger) (remote.Store, error)

// Notifier announces finished runs.
type Notifier interface {
	Notify(ctx context.Context, ev notify.RunEvent) error
}

// ConfluenceStore is the default StoreFactory.
func ConfluenceStore(cfg *config.Config, logger *slog.Logger) (remote.Store, error) {
	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}
	return confluence.New(cfg.Confluence, confluence.WithLogger(logger))
}

// DefaultService is the standard Service implementation.
type DefaultService struct {
	storeFactory StoreFactory
	inspect      Inspector
	recorder     metrics.Recorder
	registry     *prometheus.Registry
	journal      eventstore.Store
	notifier     Notifier
	logger       *slog.Logger
}

// NewService creates a DefaultService talking to Confluence.
func NewService(logger *slog.Logger) *DefaultService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultService{
		storeFactory: ConfluenceStore,
		recorder:     metrics.NoopRecorder{},
		logger:       logger,
	}
}

// WithStoreFactory replaces the remote store (for testing).
func (s *DefaultService) WithStoreFactory(f StoreFactory) *DefaultService {
	s.storeFactory = f
	return s
}

// WithInspector replaces git inspection (for testing).
func (s *DefaultService) WithInspector(i Inspector) *DefaultService {
	s.inspect = i
	return s
}

// WithMetrics records runs on a Prometheus registry. The registry is also
// what metrics.textfile exports.
func (s *DefaultService) WithMetrics(rec *metrics.PrometheusRecorder) *DefaultService {
	s.recorder = rec
	s.registry = rec.Registry()
	return s
}

// WithJournal appends run events to store.
func (s *DefaultService) WithJournal(store eventstore.Store) *DefaultService {
	s.journal = store
	return s
}

// WithNotifier announces finished runs; dry runs are not announced.
func (s *DefaultService) WithNotifier(n Notifier) *DefaultService {
	s.notifier = n
	return s
}

// Run executes one publish or cleanup run.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Config == nil {
		return nil, errors.InternalError("run requires a configuration").Build()
	}
	if req.Command != CommandPublish && req.Command != CommandCleanup {
		return nil, errors.ValidationError("unknown run command").WithContext("command", string(req.Command)).Build()
	}

	res := &Result{RunID: uuid.NewString(), Command: req.Command, StartTime: time.Now()}
	logger := s.logger.With(logfields.RunID(res.RunID), slog.String("command", string(req.Command)))

	site, err := loadSite(req.Config, req.ConfigDir, s.inspect, logger, req.Command == CommandPublish)
	if err != nil {
		return s.finish(ctx, logger, req, res, err)
	}
	res.Site = site
	logger = logger.With(logfields.Repository(site.Repository), logfields.Site(site.Name))
	s.journalStart(ctx, logger, req, res)

	store, err := s.storeFactory(req.Config, logger)
	if err != nil {
		return s.finish(ctx, logger, req, res, err)
	}
	var dry *remote.DryRunStore
	if req.DryRun {
		dry = remote.NewDryRunStore(store)
		store = dry
	}

	cc := req.Config.Confluence
	var renderer publish.Renderer
	if site.Tree != nil {
		renderer = render.New(os.DirFS(site.DocsDir), pagetree.NewIdentity(site.Tree, cc.TitlePrefix, site.Name))
	}
	pub, err := publish.New(publish.Options{
		Store:         store,
		Renderer:      renderer,
		Repository:    site.Repository,
		SiteName:      site.Name,
		TitlePrefix:   cc.TitlePrefix,
		AncestorTitle: cc.ParentPage,
		Concurrency:   req.Config.Publish.Concurrency,
		Recorder:      s.recorder,
		Logger:        logger,
	})
	if err != nil {
		return s.finish(ctx, logger, req, res, err)
	}

	logger.Info("Run started", slog.Bool("dry_run", req.DryRun), slog.String("commit", site.Commit))
	switch req.Command {
	case CommandPublish:
		res.Report, err = pub.Publish(ctx, site.Tree)
	case CommandCleanup:
		res.Report, err = pub.Cleanup(ctx)
	}
	if dry != nil {
		res.Planned = dry.Actions()
	}
	return s.finish(ctx, logger, req, res, err)
}

// finish records the outcome of a run in metrics, the journal and the
// notifier. None of these can fail the run.
func (s *DefaultService) finish(ctx context.Context, logger *slog.Logger, req Request, res *Result, runErr error) (*Result, error) {
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.Status = statusFor(runErr)

	cmd := string(req.Command)
	s.recorder.ObserveRunDuration(cmd, res.Duration)
	s.recorder.IncRunOutcome(cmd, outcomeFor(runErr))
	if runErr == nil && req.Command == CommandPublish && !req.DryRun && res.Report != nil {
		s.recorder.SetPublishedPages(res.Report.Published())
	}
	if path := req.Config.Metrics.Textfile; path != "" && s.registry != nil {
		if err := metrics.WriteTextfile(s.registry, path); err != nil {
			logger.Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
		}
	}

	// Record even when the run was canceled.
	bg := context.WithoutCancel(ctx)
	s.journalFinish(bg, logger, req, res, runErr)
	s.announce(bg, logger, req, res, runErr)

	attrs := []any{logfields.DurationMS(float64(res.Duration.Microseconds()) / 1000)}
	if res.Report != nil {
		attrs = append(attrs, slog.String("summary", res.Report.Summary()))
	}
	if runErr != nil {
		logger.Error("Run failed", append(attrs, logfields.Error(runErr))...)
		return res, runErr
	}
	logger.Info("Run complete", attrs...)
	return res, nil
}

func statusFor(err error) Status {
	switch {
	case err == nil:
		return StatusSuccess
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusFailed
	}
}

func outcomeFor(err error) metrics.OutcomeLabel {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.HasCategory(err, errors.CategoryConflict):
		return metrics.OutcomeConflict
	case statusFor(err) == StatusCanceled:
		return metrics.OutcomeCanceled
	default:
		return metrics.OutcomeFailed
	}
}

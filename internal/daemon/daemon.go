// Package daemon keeps a documentation site published: it runs the
// publisher on a schedule and after changes to the source tree, one run at
// a time.
package daemon

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	promcollect "github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

// Trigger reasons.
const (
	ReasonStartup  = "startup"
	ReasonSchedule = "schedule"
	ReasonChange   = "change"
)

// Options configure a Daemon.
type Options struct {
	Service runner.Service
	// Request is the publish request executed on every trigger.
	Request runner.Request
	Config  config.DaemonConfig
	// WatchDirs are watched recursively when Config.Watch is set.
	WatchDirs []string
	// ListenAddr serves /metrics and /healthz when non-empty.
	ListenAddr string
	Registry   *prom.Registry
	Logger     *slog.Logger
}

// Daemon runs publishes until its context ends.
type Daemon struct {
	opts     Options
	logger   *slog.Logger
	requests chan string
	started  time.Time

	mu   sync.Mutex
	last *runStatus
	runs int
}

// New validates opts.
func New(opts Options) (*Daemon, error) {
	if opts.Service == nil {
		return nil, errors.DaemonError("daemon requires a run service").Build()
	}
	if opts.Config.Interval <= 0 {
		return nil, errors.ConfigError("daemon.interval must be positive").Build()
	}
	if opts.Config.Debounce <= 0 {
		opts.Config.Debounce = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Request.Command = runner.CommandPublish
	return &Daemon{
		opts:   opts,
		logger: opts.Logger,
		// One buffered slot: requests arriving during a run collapse into a
		// single follow-up run.
		requests: make(chan string, 1),
	}, nil
}

// Trigger requests a publish run without blocking.
func (d *Daemon) Trigger(reason string) {
	select {
	case d.requests <- reason:
	default:
		d.logger.Debug("Publish already pending", slog.String("reason", reason))
	}
}

// Run starts the scheduler, the watcher and the HTTP endpoint, publishes
// once, then serves triggers until ctx is done.
func (d *Daemon) Run(ctx context.Context) error {
	d.started = time.Now()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return errors.DaemonError("failed to create scheduler").WithCause(err).Build()
	}
	if _, err := scheduler.NewJob(
		gocron.DurationJob(d.opts.Config.Interval),
		gocron.NewTask(d.Trigger, ReasonSchedule),
		gocron.WithName("periodic-publish"),
	); err != nil {
		_ = scheduler.Shutdown()
		return errors.DaemonError("failed to schedule periodic publish").WithCause(err).Build()
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			d.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
		}
	}()
	d.logger.Info("Periodic publish scheduled", slog.Duration("interval", d.opts.Config.Interval))

	if d.opts.Config.Watch && len(d.opts.WatchDirs) > 0 {
		w, err := newWatcher(d.opts.WatchDirs, d.opts.Config.Debounce, func() { d.Trigger(ReasonChange) }, d.logger)
		if err != nil {
			return err
		}
		defer w.Close()
		go w.Run(ctx)
	}

	if d.opts.ListenAddr != "" {
		stop, err := d.serve(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	d.Trigger(ReasonStartup)
	d.loop(ctx)
	d.logger.Info("Daemon stopped")
	return nil
}

func (d *Daemon) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case reason := <-d.requests:
			d.runOnce(ctx, reason)
		}
	}
}

func (d *Daemon) runOnce(ctx context.Context, reason string) {
	d.logger.Info("Publishing", slog.String("reason", reason))
	res, err := d.opts.Service.Run(ctx, d.opts.Request)

	st := &runStatus{Reason: reason, Finished: time.Now()}
	if res != nil {
		st.RunID = res.RunID
		st.Status = string(res.Status)
		if res.Report != nil {
			st.Summary = res.Report.Summary()
		}
	}
	if err != nil {
		st.Error = err.Error()
		if st.Status == "" {
			st.Status = string(runner.StatusFailed)
		}
		// The service logs the failure; the daemon keeps going.
	}

	d.mu.Lock()
	d.last = st
	d.runs++
	d.mu.Unlock()
}

// Runs returns how many runs have finished.
func (d *Daemon) Runs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.runs
}

func (d *Daemon) serve(ctx context.Context) (func(), error) {
	if d.opts.Registry != nil {
		// Ignore duplicate registration when the registry is shared.
		_ = d.opts.Registry.Register(promcollect.NewGoCollector())
		_ = d.opts.Registry.Register(promcollect.NewProcessCollector(promcollect.ProcessCollectorOpts{}))
	}
	srv := &http.Server{
		Addr:              d.opts.ListenAddr,
		Handler:           d.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return nil, errors.DaemonError("failed to start HTTP server").
			WithCause(err).
			WithContext("addr", d.opts.ListenAddr).
			Build()
	case <-time.After(100 * time.Millisecond):
	}
	d.logger.Info("HTTP endpoint listening", slog.String("addr", d.opts.ListenAddr))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("HTTP server shutdown error", logfields.Error(err))
		}
	}, nil
}

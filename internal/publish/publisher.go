package publish

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/metrics"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
	"git.home.luguber.info/inful/docpublisher/internal/render"
)

// Renderer produces the remote body of a local page.
type Renderer interface {
	Render(page pagetree.LocalPage) (render.Rendered, error)
}

// Options configure a Publisher.
type Options struct {
	Store    remote.Store
	Renderer Renderer
	// Repository identifies this source; it is recorded on every page and
	// compared before any existing page is modified.
	Repository string
	SiteName   string
	// TitlePrefix is prepended to every remote title.
	TitlePrefix string
	// AncestorTitle optionally names an existing page the home page is
	// published under.
	AncestorTitle string
	// Concurrency bounds concurrent store calls within one level.
	Concurrency int
	Recorder    metrics.Recorder
	Logger      *slog.Logger
}

// Publisher syncs page trees to a store.
type Publisher struct {
	opts     Options
	recorder metrics.Recorder
	logger   *slog.Logger
}

// New validates opts and returns a Publisher.
func New(opts Options) (*Publisher, error) {
	if opts.Store == nil {
		return nil, errors.InternalError("publisher requires a store").Build()
	}
	if opts.Repository == "" {
		return nil, errors.ConfigError("repository identity is required").Build()
	}
	if pagetree.NormalizeTitle(opts.SiteName) == "" {
		return nil, errors.ConfigError("site name is required").Build()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	p := &Publisher{opts: opts, recorder: opts.Recorder, logger: opts.Logger}
	if p.recorder == nil {
		p.recorder = metrics.NoopRecorder{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// HomeTitle is the remote title of the home page.
func (p *Publisher) HomeTitle() string {
	return p.remoteTitle(p.opts.SiteName)
}

func (p *Publisher) remoteTitle(title string) string {
	return pagetree.RemoteTitle(p.opts.TitlePrefix, title)
}

// Publish syncs tree and returns what was done. On error the report holds
// the operations applied before the failure.
func (p *Publisher) Publish(ctx context.Context, tree *pagetree.Tree) (*Report, error) {
	if p.opts.Renderer == nil {
		return nil, errors.InternalError("publisher requires a renderer").Build()
	}
	report := &Report{Skipped: tree.Skipped}
	r := newRun(p, tree, report)
	if err := r.checkTitles(); err != nil {
		return report, err
	}

	start := time.Now()
	homeID, err := r.syncHome(ctx)
	if err != nil {
		return report, err
	}
	report.RootID = homeID
	r.index = newSyncedIndex(homeID)

	if err := r.processLevel(ctx, pagetree.RootSection); err != nil {
		return report, err
	}

	p.logger.Info("Publish complete",
		logfields.Site(p.opts.SiteName),
		logfields.PageID(homeID),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
		slog.String("summary", report.Summary()))
	return report, nil
}

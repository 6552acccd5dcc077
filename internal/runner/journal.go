package runner

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/notify"
	"git.home.luguber.info/inful/docpublisher/internal/publish"
)

func (s *DefaultService) journalStart(ctx context.Context, logger *slog.Logger, req Request, res *Result) {
	if s.journal == nil {
		return
	}
	meta := eventstore.RunStartedMeta{
		Command: string(req.Command),
		Space:   req.Config.Confluence.SpaceKey,
		DryRun:  req.DryRun,
	}
	if res.Site != nil {
		meta.Repository = res.Site.Repository
		meta.Site = res.Site.Name
		meta.Commit = res.Site.Commit
	}
	e, err := eventstore.NewRunStarted(res.RunID, meta)
	s.record(ctx, logger, e, err)
}

func (s *DefaultService) journalFinish(ctx context.Context, logger *slog.Logger, req Request, res *Result, runErr error) {
	if s.journal == nil {
		return
	}
	if res.Site == nil {
		// The run failed before the site was loaded.
		s.journalStart(ctx, logger, req, res)
	}

	if res.Report != nil {
		for _, pr := range res.Report.Results {
			change := eventstore.PageChange{
				Operation: string(pr.Operation),
				Title:     pr.Title,
				Path:      pr.Path,
				PageID:    pr.ID,
				ParentID:  pr.ParentID,
			}
			if pr.Operation == publish.OpDelete {
				e, err := eventstore.NewPageDeleted(res.RunID, change)
				s.record(ctx, logger, e, err)
				continue
			}
			e, err := eventstore.NewPageSynced(res.RunID, change)
			s.record(ctx, logger, e, err)
		}
	}

	if runErr != nil {
		e, err := eventstore.NewRunFailed(res.RunID, runErr, res.Duration)
		s.record(ctx, logger, e, err)
		return
	}
	e, err := eventstore.NewRunCompleted(res.RunID, counts(res))
	s.record(ctx, logger, e, err)
}

func (s *DefaultService) record(ctx context.Context, logger *slog.Logger, e eventstore.Event, err error) {
	if err == nil {
		err = eventstore.Record(ctx, s.journal, e)
	}
	if err != nil {
		logger.Warn("Failed to journal run event", logfields.Error(err))
	}
}

func counts(res *Result) eventstore.RunCounts {
	c := eventstore.RunCounts{DurationMS: res.Duration.Milliseconds()}
	if r := res.Report; r != nil {
		c.Created = r.Count(publish.OpCreate)
		c.Updated = r.Count(publish.OpUpdate)
		c.Unchanged = r.Count(publish.OpKeep)
		c.Deleted = r.Count(publish.OpDelete)
		c.Skipped = len(r.Skipped)
	}
	return c
}

func (s *DefaultService) announce(ctx context.Context, logger *slog.Logger, req Request, res *Result, runErr error) {
	if s.notifier == nil || req.DryRun {
		return
	}
	c := counts(res)
	ev := notify.RunEvent{
		RunID:      res.RunID,
		Command:    string(req.Command),
		Status:     string(res.Status),
		Created:    c.Created,
		Updated:    c.Updated,
		Unchanged:  c.Unchanged,
		Deleted:    c.Deleted,
		Skipped:    c.Skipped,
		DurationMS: c.DurationMS,
		Timestamp:  res.EndTime,
	}
	if res.Site != nil {
		ev.Repository = res.Site.Repository
		ev.Site = res.Site.Name
	}
	if runErr != nil {
		ev.Error = runErr.Error()
	}
	if err := s.notifier.Notify(ctx, ev); err != nil {
		logger.Warn("Failed to send run notification", logfields.Error(err))
	}
}

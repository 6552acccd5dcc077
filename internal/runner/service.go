// Package runner provides the single execution path for publish and cleanup
// runs. The CLI and the daemon are thin wrappers over Service.
package runner

import (
	"context"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/publish"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
)

// Service executes runs.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Command selects what a run does.
type Command string

const (
	CommandPublish Command = "publish"
	CommandCleanup Command = "cleanup"
)

// Request contains all inputs of one run.
type Request struct {
	Config *config.Config
	// ConfigDir resolves a relative source.dir; usually the directory of
	// the configuration file.
	ConfigDir string
	Command   Command
	// DryRun records planned mutations instead of applying them.
	DryRun bool
}

// Status is the outcome of a run.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Result describes a finished run. It is returned alongside a failure too,
// carrying whatever the run completed before it stopped.
type Result struct {
	RunID   string
	Command Command
	Status  Status
	Site    *Site
	Report  *publish.Report
	// Planned lists the mutations a dry run would have applied.
	Planned   []remote.PlannedAction
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

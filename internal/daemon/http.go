package daemon

import (
	"encoding/json"
	"net/http"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/metrics"
	"git.home.luguber.info/inful/docpublisher/internal/version"
)

type runStatus struct {
	RunID    string    `json:"run_id,omitempty"`
	Reason   string    `json:"reason"`
	Status   string    `json:"status"`
	Summary  string    `json:"summary,omitempty"`
	Error    string    `json:"error,omitempty"`
	Finished time.Time `json:"finished"`
}

type healthResponse struct {
	Status  string     `json:"status"`
	Version string     `json:"version"`
	Uptime  string     `json:"uptime"`
	Runs    int        `json:"runs"`
	LastRun *runStatus `json:"last_run,omitempty"`
}

func (d *Daemon) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", d.handleHealth)
	if d.opts.Registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(d.opts.Registry))
	}
	return mux
}

// handleHealth reports "degraded" while the last run failed; the daemon
// itself stays up.
func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	resp := healthResponse{
		Status:  "healthy",
		Version: version.Version,
		Uptime:  time.Since(d.started).Round(time.Second).String(),
		Runs:    d.runs,
	}
	if d.last != nil {
		last := *d.last
		resp.LastRun = &last
		if last.Error != "" {
			resp.Status = "degraded"
		}
	}
	d.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Package metrics records publish metrics.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so no call site needs a nil check. The Prometheus
// implementation backs both the textfile export written after each run and
// the /metrics endpoint served by the daemon.
package metrics

package daemon

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
	"git.home.luguber.info/inful/docpublisher/internal/testutil/testutils"
)

var quietLogger = testutils.QuietLogger

// blockingService counts runs and holds each one until released.
type blockingService struct {
	mu       sync.Mutex
	commands []runner.Command
	started  chan struct{}
	release  chan struct{}
	inFlight atomic.Int32
	overlap  atomic.Bool
	err      error
}

func newBlockingService() *blockingService {
	return &blockingService{started: make(chan struct{}, 16), release: make(chan struct{}, 16)}
}

func (s *blockingService) Run(ctx context.Context, req runner.Request) (*runner.Result, error) {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	s.mu.Lock()
	s.commands = append(s.commands, req.Command)
	s.mu.Unlock()
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	status := runner.StatusSuccess
	if s.err != nil {
		status = runner.StatusFailed
	}
	return &runner.Result{RunID: "r", Status: status}, s.err
}

func newDaemon(t *testing.T, svc runner.Service, mutate ...func(*Options)) *Daemon {
	t.Helper()
	opts := Options{
		Service: svc,
		Request: runner.Request{Command: runner.CommandCleanup},
		Config:  config.DaemonConfig{Interval: time.Hour},
		Logger:  quietLogger(),
	}
	for _, m := range mutate {
		m(&opts)
	}
	d, err := New(opts)
	require.NoError(t, err)
	return d
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Options{Config: config.DaemonConfig{Interval: time.Hour}})
	require.True(t, errors.HasCategory(err, errors.CategoryDaemon))

	_, err = New(Options{Service: newBlockingService()})
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestDaemon_AlwaysPublishes(t *testing.T) {
	d := newDaemon(t, newBlockingService())
	require.Equal(t, runner.CommandPublish, d.opts.Request.Command)
}

func TestDaemon_TriggersDuringRunCollapseIntoOneFollowUp(t *testing.T) {
	svc := newBlockingService()
	d := newDaemon(t, svc)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	done := make(chan struct{})
	go func() {
		_ = d.Run(ctx)
		close(done)
	}()

	<-svc.started // startup run is in flight
	for range 5 {
		d.Trigger(ReasonChange)
	}
	svc.release <- struct{}{}

	<-svc.started // exactly one follow-up
	svc.release <- struct{}{}
	require.Eventually(t, func() bool { return d.Runs() == 2 }, time.Second, 5*time.Millisecond)

	select {
	case <-svc.started:
		t.Fatal("unexpected third run")
	case <-time.After(50 * time.Millisecond):
	}
	require.False(t, svc.overlap.Load())

	cancel()
	<-done
}

func TestDaemon_FailedRunKeepsRunning(t *testing.T) {
	svc := newBlockingService()
	svc.err = errors.RemoteError("boom").Build()
	d := newDaemon(t, svc)
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	<-svc.started
	svc.release <- struct{}{}
	require.Eventually(t, func() bool { return d.Runs() == 1 }, time.Second, 5*time.Millisecond)

	d.Trigger(ReasonChange)
	<-svc.started
	svc.release <- struct{}{}
	require.Eventually(t, func() bool { return d.Runs() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDaemon_WatchedChangeTriggersRun(t *testing.T) {
	dir := t.TempDir()
	svc := newBlockingService()
	d := newDaemon(t, svc, func(o *Options) {
		o.Config.Watch = true
		o.Config.Debounce = 20 * time.Millisecond
		o.WatchDirs = []string{dir}
	})
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	go func() { _ = d.Run(ctx) }()

	<-svc.started
	svc.release <- struct{}{}
	require.Eventually(t, func() bool { return d.Runs() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.md"), []byte("x"), 0o600))
	select {
	case <-svc.started:
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger a run")
	}
	svc.release <- struct{}{}
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	reg := prom.NewRegistry()
	counter := prom.NewCounter(prom.CounterOpts{Name: "docpublisher_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	d := newDaemon(t, newBlockingService(), func(o *Options) { o.Registry = reg })
	d.started = time.Now()
	d.last = &runStatus{Reason: ReasonSchedule, Status: "failed", Error: "boom"}
	d.runs = 1

	srv := httptest.NewServer(d.handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health healthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	require.Equal(t, "degraded", health.Status)
	require.Equal(t, 1, health.Runs)
	require.Equal(t, "boom", health.LastRun.Error)

	mresp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer mresp.Body.Close()
	body, err := io.ReadAll(mresp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "docpublisher_test_total")
}

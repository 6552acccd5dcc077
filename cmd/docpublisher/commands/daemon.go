package commands

import (
	"git.home.luguber.info/inful/docpublisher/internal/daemon"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	sess, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer sess.Close()

	svc, err := sess.service()
	if err != nil {
		return err
	}
	opts := daemon.Options{
		Service:    svc,
		Request:    runner.Request{Config: sess.cfg, ConfigDir: sess.configDir},
		Config:     sess.cfg.Daemon,
		WatchDirs:  []string{runner.SourceRoot(sess.cfg, sess.configDir)},
		ListenAddr: sess.cfg.Metrics.ListenAddr,
		Logger:     sess.logger,
	}
	if sess.recorder != nil {
		opts.Registry = sess.recorder.Registry()
	}
	dmn, err := daemon.New(opts)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return dmn.Run(ctx)
}

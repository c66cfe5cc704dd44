package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batticon/pkg/config"
	"github.com/charlie0129/batticon/pkg/daemon"
	"github.com/charlie0129/batticon/pkg/events"
	"github.com/charlie0129/batticon/pkg/gui"
	"github.com/charlie0129/batticon/pkg/notify"
	"github.com/charlie0129/batticon/pkg/powerinfo"
	"github.com/charlie0129/batticon/pkg/powersupply"
	"github.com/charlie0129/batticon/pkg/version"
)

// sysfsOverride replaces the registry path of the config file with the one
// given on the command line.
type sysfsOverride struct {
	config.Config
	path string
}

func (o sysfsOverride) SysfsPath() string { return o.path }

// loadedConfig is the config used by commands. file is kept for reloads.
type loadedConfig struct {
	config.Config
	file *config.File
}

func loadConfig() (*loadedConfig, error) {
	f, err := config.NewFile(configPath)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to parse config during startup")
	}

	lc := &loadedConfig{Config: f, file: f}
	if sysfsPath != "" {
		lc.Config = sysfsOverride{Config: f, path: sysfsPath}
	}
	return lc, nil
}

func newNotifier(conf config.Config) notify.Notifier {
	switch conf.Notifier() {
	case config.NotifierDBus:
		return &notify.DBus{AppName: "batticon"}
	default:
		return &notify.NotifySend{}
	}
}

// run discovers the power supplies and polls until interrupted. Discovery
// and presence errors are fatal.
func run(conf *loadedConfig, batteryID string) error {
	logrus.WithFields(logrus.Fields{
		"version": version.Version,
		"commit":  version.GitCommit,
	}).Info("batticon starting")
	logrus.WithFields(conf.file.LogrusFields()).Infof("config loaded")

	supplies, err := powersupply.Discover(conf.SysfsPath(), batteryID)
	if err != nil {
		return err
	}

	var resolver daemon.StatusResolver
	if supplies.Battery != nil {
		present, err := powerinfo.ReadPresence(supplies.Battery)
		if err != nil {
			return err
		}
		resolver = &powerinfo.Resolver{
			Battery: supplies.Battery,
			AC:      supplies.AC,
			Present: present,
		}
	}

	notifier := newNotifier(conf)
	if c, ok := notifier.(*notify.DBus); ok {
		defer func() {
			if err := c.Close(); err != nil {
				logrus.Errorf("failed to close dbus connection: %v", err)
			}
		}()
	}

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.file.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			logrus.WithFields(conf.file.LogrusFields()).Infof("config reloaded")
		}
	}()
	conf.file.Watch(func() {
		logrus.WithFields(conf.file.LogrusFields()).Infof("config reloaded")
	})

	hub := events.NewEventHub()
	opts := daemon.MonitorOptions{
		Config:   conf,
		Supplies: supplies,
		Resolver: resolver,
		Notifier: notifier,
		Launcher: notify.ExecLauncher{},
		Hub:      hub,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigc:
			logrus.Infof("caught signal \"%s\": shutting down.", sig)
			cancel()
			if !noTray {
				gui.Quit()
			}
		case <-ctx.Done():
		}
	}()

	if noTray {
		opts.Display = &daemon.LogDisplay{}
		m := daemon.NewMonitor(opts)
		stop, err := serveStatus(conf, m, hub)
		if err != nil {
			return err
		}
		defer stop()
		return m.Run(ctx)
	}

	var runErr error
	ready := make(chan struct{})
	done := make(chan struct{})
	gui.Run(func(t *gui.Tray) {
		close(ready)
		opts.Display = t
		opts.Clicks = t.Clicks()
		m := daemon.NewMonitor(opts)

		stop, err := serveStatus(conf, m, hub)
		if err != nil {
			runErr = err
			close(done)
			gui.Quit()
			return
		}

		go func() {
			defer close(done)
			defer stop()
			runErr = m.Run(ctx)
		}()
	}, cancel)

	select {
	case <-ready:
	default:
		return pkgerrors.New("failed to initialize the tray")
	}
	<-done
	logrus.Info("exiting")
	return runErr
}

// serveStatus starts the status API if a socket is configured. The
// returned function stops it.
func serveStatus(conf config.Config, m *daemon.Monitor, hub *events.EventHub) (func(), error) {
	path := conf.StatusSocket()
	if path == "" {
		return func() {}, nil
	}

	srv := daemon.NewServer(conf, m, hub)
	if err := srv.Listen(path); err != nil {
		return nil, err
	}

	return func() {
		logrus.Info("shutting down status api")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logrus.Errorf("failed to shutdown status api: %v", err)
		}
		_ = os.Remove(path)
	}, nil
}

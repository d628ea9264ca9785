package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	c "lautenbacher.net/goeffects/config"
	ctl "lautenbacher.net/goeffects/control"
	"lautenbacher.net/goeffects/logging"
	pl "lautenbacher.net/goeffects/platform"
)

const webShutdownTimeout = 2 * time.Second

type App struct {
	ossignal   chan os.Signal
	cfile      string
	realHW     bool
	config     *c.Config
	platform   pl.Platform
	selection  *ctl.Selection
	scheduler  *ctl.Scheduler
	web        *http.Server
	watcher    *fsnotify.Watcher
	stopsignal chan struct{}
	shutdownWg sync.WaitGroup

	newPlatform func(conf *c.Config, ossignal chan os.Signal) pl.Platform
}

func NewApp(ossignal chan os.Signal, cfile string, realHW bool) *App {
	return &App{
		ossignal:    ossignal,
		cfile:       cfile,
		realHW:      realHW,
		newPlatform: newPlatform,
	}
}

func newPlatform(conf *c.Config, ossignal chan os.Signal) pl.Platform {
	if conf.RealHW {
		return pl.NewRaspberryPiPlatform(conf)
	}
	return pl.NewTUIPlatform(conf, ossignal)
}

func main() {
	cfile := flag.String("config", c.CONFILE, "Config file to use")
	realp := flag.Bool("real", false, "Drive the real LED strip (default: TUI simulation)")
	flag.Parse()

	ossignal := make(chan os.Signal, 1)
	signal.Notify(ossignal, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	app := NewApp(ossignal, *cfile, *realp)
	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "goeffects: %v\n", err)
		os.Exit(1)
	}
}

// Run initialises the application and keeps it running until an
// interrupt or a termination signal. SIGHUP restarts everything with a
// freshly read config file.
func (a *App) Run() error {
	defer logging.Close()
	for {
		if err := a.initialise(); err != nil {
			slog.Error("Initialisation failed", "error", err)
			a.shutdown()
			return err
		}

		sig := <-a.ossignal
		slog.Info("Received signal", "signal", sig)
		a.shutdown()
		if sig != syscall.SIGHUP {
			slog.Info("Exiting")
			return nil
		}
		slog.Info("Reloading config file", "file", a.cfile)
	}
}

func (a *App) initialise() error {
	conf, err := c.ReadConfig(a.cfile, a.realHW)
	if err != nil {
		return err
	}
	a.config = conf

	logcfg := conf.Logging.TUI
	if a.realHW {
		logcfg = conf.Logging.HW
	}
	if err := logging.Init(!a.realHW, logcfg.Level, logcfg.Format, logcfg.File); err != nil {
		return err
	}
	slog.Info("Starting goeffects", "config", a.cfile, "realHW", a.realHW)

	a.stopsignal = make(chan struct{})
	a.platform = a.newPlatform(conf, a.ossignal)
	if err := a.platform.Start(); err != nil {
		return fmt.Errorf("can't start platform: %w", err)
	}
	<-a.platform.Ready()

	display := conf.Hardware.Display
	seed := conf.Scheduler.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	a.selection = ctl.NewSelection()
	registry := ctl.NewRegistry(conf.Effects, display.Width, display.Height, seed)
	a.scheduler = ctl.NewScheduler(conf.Scheduler, registry, a.selection, ctl.NewClock(), a.platform, display.Width, display.Height)
	a.scheduler.Start()

	a.shutdownWg.Add(1)
	go a.commandDispatcher()

	if conf.Web.Enabled {
		a.startWebServer()
	}
	if err := a.startConfigWatcher(); err != nil {
		slog.Warn("Config file changes will not be picked up", "error", err)
	}
	return nil
}

// shutdown stops everything initialise started, in reverse order. It
// copes with a partially initialised App.
func (a *App) shutdown() {
	if a.stopsignal != nil {
		close(a.stopsignal)
	}
	a.shutdownWg.Wait()
	a.stopsignal = nil

	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			slog.Error("Error closing config watcher", "error", err)
		}
		a.watcher = nil
	}
	if a.web != nil {
		ctx, cancel := context.WithTimeout(context.Background(), webShutdownTimeout)
		if err := a.web.Shutdown(ctx); err != nil {
			slog.Error("Error shutting down web server", "error", err)
		}
		cancel()
		a.web = nil
	}
	if a.scheduler != nil {
		snap := a.scheduler.Snapshot()
		a.scheduler.Stop()
		slog.Info("Render loop stopped", "ticks", snap.Ticks, "overruns", snap.Overruns, "dropped", snap.DroppedFrames)
		a.scheduler = nil
	}
	if a.platform != nil {
		a.platform.Stop()
		a.platform = nil
	}
	if !a.realHW {
		// keep log lines of the reload until the next TUI is up
		logging.BufferOutput()
	}
}

// commandDispatcher forwards the commands of keys and buttons to the
// effect selection.
func (a *App) commandDispatcher() {
	defer a.shutdownWg.Done()
	events := a.platform.GetCommandEvents()
	for {
		select {
		case <-a.stopsignal:
			slog.Info("Ending CommandDispatcher go-routine")
			return
		case trigger := <-events:
			if err := a.selection.Dispatch(trigger); err != nil {
				slog.Warn("Ignoring command", "error", err)
			}
		}
	}
}

func (a *App) startWebServer() {
	mux := http.NewServeMux()
	ctl.RegisterHandlers(mux, a.selection, a.scheduler)
	mux.HandleFunc("/api/config", c.ConfigHandler(a.cfile))

	srv := &http.Server{
		Addr:              a.config.Web.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	a.web = srv
	go func() {
		slog.Info("Starting web server", "listen", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Web server failed", "error", err)
		}
	}()
}

// startConfigWatcher reloads the application when the config file is
// written. The directory is watched because editors often replace the
// file instead of writing it in place.
func (a *App) startConfigWatcher() error {
	cfile, err := filepath.Abs(a.cfile)
	if err != nil {
		return fmt.Errorf("can't resolve config file %s: %w", a.cfile, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("can't create config watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(cfile)); err != nil {
		watcher.Close()
		return fmt.Errorf("can't watch %s: %w", filepath.Dir(cfile), err)
	}
	a.watcher = watcher

	a.shutdownWg.Add(1)
	go a.configWatcher(watcher, cfile)
	return nil
}

func (a *App) configWatcher(watcher *fsnotify.Watcher, cfile string) {
	defer a.shutdownWg.Done()
	for {
		select {
		case <-a.stopsignal:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cfile {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			slog.Info("Config file changed", "file", event.Name, "op", event.Op)
			// one reload per run, the next run watches again
			a.requestReload()
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", "error", err)
		}
	}
}

func (a *App) requestReload() {
	select {
	case a.ossignal <- syscall.SIGHUP:
	default:
		slog.Debug("Signal already pending, skipping reload request")
	}
}

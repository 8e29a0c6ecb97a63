package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/soar/padmapper/internal/config"
	"github.com/soar/padmapper/internal/console"
	"github.com/soar/padmapper/internal/devtools"
	"github.com/soar/padmapper/internal/driver"
	"github.com/soar/padmapper/internal/gamepad/sdlreader"
	"github.com/soar/padmapper/internal/hub"
	"github.com/soar/padmapper/internal/monitor"
	"github.com/soar/padmapper/internal/output"
	"github.com/soar/padmapper/internal/server"
	"github.com/soar/padmapper/internal/translate"
	"github.com/soar/padmapper/internal/tray"
	"github.com/soar/padmapper/internal/window"
)

var version = "dev"

// os.Interrupt covers Ctrl+C on every platform; SIGTERM is Unix only in
// practice.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const feedBuffer = 256

func main() {
	configPath := pflag.String("config", "", "config file (default: padmapper.toml in the user config dir)")
	pflag.Bool("debug", false, "log every synthesized transition")
	pflag.Bool("dev", false, "enable the dev-mode tuning commands")
	pflag.Int("tick-rate", 60, "engine ticks per second")
	pflag.String("monitor-addr", "localhost:8080", "listen address of the live monitor")
	noMonitor := pflag.Bool("no-monitor", false, "do not serve the live monitor")
	noTray := pflag.Bool("no-tray", false, "do not show the tray icon (Windows)")
	watchURL := pflag.String("watch", "", "print the stream of a running instance, e.g. ws://localhost:8080/ws")
	showVersion := pflag.Bool("version", false, "print the version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Println("padmapper", version)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	if *watchURL != "" {
		if err := monitor.Watch(ctx, *watchURL, os.Stdout); err != nil {
			log.Fatalf("Watch: %v", err)
		}
		return
	}

	interactive := console.Attach()
	reinstallInterrupt := console.HandleInterrupt(cancel)

	cfg := config.New()
	if err := cfg.BindFlags(pflag.CommandLine); err != nil {
		log.Fatal(err)
	}
	if *noMonitor {
		cfg.Set(config.KeyMonitorEnabled, false)
	}
	if err := cfg.Load(*configPath); err != nil {
		log.Fatal(err)
	}
	if err := cfg.Watch(); err != nil {
		log.Printf("Config: live reload disabled: %v", err)
	}
	defer cfg.Close()

	reader := sdlreader.NewReader()
	tools := devtools.New(cfg)

	var sink output.Sink = output.NewInjector()
	var (
		h    *hub.Hub
		b    *hub.Broadcaster
		feed *output.Feed
	)
	if cfg.MonitorEnabled() {
		feed = output.NewFeed(feedBuffer)
		sink = output.Tee{sink, feed}
		h = hub.NewHub()
		b = hub.NewBroadcaster(h, feed.Events())
		go h.Run(ctx)
		go b.Run(ctx)
	}
	sink = output.Logger{Sink: sink, Enabled: func() bool { return cfg.Settings().Debug }}

	activator := window.NewActivator(cfg.TargetTitle(), cfg.FocusWait())
	engine := translate.NewEngine(reader, sink, cfg, translate.WithActivator(activator))

	opts := []driver.Option{
		driver.WithCommands(tools),
		driver.WithOpened(reinstallInterrupt),
	}
	if b != nil {
		opts = append(opts, driver.WithPublisher(func(st translate.Status) {
			b.Publish(hub.Snapshot{
				Controller: reader.Info(),
				Status:     st,
				Settings:   cfg.Settings(),
				DevMode:    cfg.DevMode(),
			})
		}))
	}
	drv := driver.New(reader, engine, cfg, opts...)
	panel := controlPanel{tools: tools, driver: drv}

	driverDone := make(chan error, 1)
	go func() {
		driverDone <- drv.Run(ctx)
	}()

	var srv *server.Server
	serverErrCh := make(chan error, 1)
	if h != nil {
		var err error
		srv, err = server.New(h, b, panel, cfg.MonitorAddr())
		if err != nil {
			log.Fatal(err)
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrCh <- err
			}
		}()
	}

	showTray := runtime.GOOS == "windows" && (!*noTray || !interactive)
	if showTray {
		monitorURL := ""
		if srv != nil {
			monitorURL = "http://" + cfg.MonitorAddr()
		}
		t := tray.New(tray.Actions{
			MonitorURL: monitorURL,
			SetDevMode: func(on bool) error { return cfg.Save(config.KeyDevMode, on) },
			ReleaseAll: drv.RequestReleaseAll,
			Shutdown:   cancel,
		}, cfg.DevMode())
		cfg.OnChange(func(translate.Settings) { t.SyncDevMode(cfg.DevMode()) })
		go t.Run(tray.Icon())
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
	} else {
		log.Println("Press Ctrl+C to exit")
	}
	log.Printf("padmapper %s started", version)

	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case err := <-serverErrCh:
		log.Printf("Monitor server error: %v", err)
		cancel()
	}

	if err := <-driverDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Driver error: %v", err)
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Monitor server shutdown error: %v", err)
		}
	}
	log.Println("padmapper stopped")
}

// controlPanel routes monitor and tray requests into the tick goroutine.
type controlPanel struct {
	tools  *devtools.Tools
	driver *driver.Driver
}

func (p controlPanel) DevCommand(name string) error {
	return p.tools.Submit(name)
}

func (p controlPanel) ReleaseAll() {
	p.driver.RequestReleaseAll()
}

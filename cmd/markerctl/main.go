// Command markerctl replays marker command scripts against a marker manager
// and prints the resulting draw list. Snapshots of the marker set can be
// saved to and restored from the configured store.
//
// Usage:
//
//	markerctl [-config dir] [-zoom n] run <script>
//	markerctl [-config dir] [-zoom n] snapshot <script>
//	markerctl [-config dir] [-zoom n] restore [id]
//	markerctl [-config dir] list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/OCAP2/markers/internal/config"
	"github.com/OCAP2/markers/internal/dispatcher"
	"github.com/OCAP2/markers/internal/handlers"
	"github.com/OCAP2/markers/internal/logging"
	"github.com/OCAP2/markers/internal/marker"
	intOtel "github.com/OCAP2/markers/internal/otel"
	"github.com/OCAP2/markers/internal/storage"
	"github.com/OCAP2/markers/internal/style"
	"github.com/rs/zerolog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

var errUsage = errors.New("usage: markerctl [-config dir] [-zoom n] run|snapshot <script> | restore [id] | list")

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("markerctl", flag.ContinueOnError)
	fs.SetOutput(out)
	configDir := fs.String("config", ".", "directory containing "+config.FileName)
	zoom := fs.Int("zoom", -1, "zoom level for the final frame; the script's last update is used when negative")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}

	a, err := newApp(*configDir, out)
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	switch cmd, rest := fs.Arg(0), fs.Args()[1:]; cmd {
	case "run":
		if len(rest) != 1 {
			return errUsage
		}
		if err := a.replay(rest[0]); err != nil {
			return err
		}
		a.frame(*zoom)
		return nil

	case "snapshot":
		if len(rest) != 1 {
			return errUsage
		}
		if err := a.replay(rest[0]); err != nil {
			return err
		}
		a.frame(*zoom)
		store, err := a.openStore()
		if err != nil {
			return err
		}
		id, err := store.Save(ctx, a.markers.Snapshot())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved snapshot %d (%d markers)\n", id, a.markers.Len())
		return nil

	case "restore":
		if len(rest) > 1 {
			return errUsage
		}
		store, err := a.openStore()
		if err != nil {
			return err
		}
		var snaps []marker.Snapshot
		if len(rest) == 1 {
			id, perr := strconv.ParseUint(rest[0], 10, 0)
			if perr != nil {
				return fmt.Errorf("bad snapshot id %q: %w", rest[0], perr)
			}
			snaps, err = store.LoadID(ctx, uint(id))
		} else {
			snaps, err = store.Load(ctx)
		}
		if err != nil {
			return err
		}
		a.markers.Restore(snaps)
		a.frame(max(*zoom, 0))
		return nil

	case "list":
		store, err := a.openStore()
		if err != nil {
			return err
		}
		recs, err := store.List(ctx)
		if err != nil {
			return err
		}
		for _, r := range recs {
			fmt.Fprintf(out, "%d\t%s\t%d markers\n", r.ID, r.CreatedAt.Format(time.RFC3339), r.MarkerCount)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

// app wires the marker manager, dispatcher and ambient services for one
// invocation.
type app struct {
	out       io.Writer
	clock     *scriptClock
	markers   *marker.Manager
	commands  *dispatcher.Dispatcher
	logger    *slog.Logger
	slogMgr   *logging.SlogManager
	otel      *intOtel.Provider
	logFile   *os.File
	metricLog *os.File
	store     *storage.Store
	storeLog  zerolog.Logger
}

func newApp(configDir string, out io.Writer) (*app, error) {
	a := &app{out: out, clock: newScriptClock()}

	slogMgr := logging.NewSlogManager()
	slogMgr.Setup(os.Stderr, "warn", nil)
	a.slogMgr = slogMgr
	initLog := slogMgr.Logger()

	if err := config.Load(configDir); err != nil {
		initLog.Warn("Failed to load config, using defaults", "error", err)
		config.LoadDefaults()
	}

	session := logging.NewSession(config.GetString("logsDir"), time.Now())
	f, err := session.Open("log")
	if err != nil {
		return nil, err
	}
	a.logFile = f

	otelCfg := config.GetOTelConfig()
	providerCfg := intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    f,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	}
	if otelCfg.Enabled {
		if mf, err := session.Open("metrics.json"); err != nil {
			initLog.Warn("Failed to open metrics file", "error", err)
		} else {
			a.metricLog = mf
			providerCfg.MetricWriter = mf
		}
	}
	var logProvider *sdklog.LoggerProvider
	if p, err := intOtel.New(providerCfg); err != nil {
		initLog.Warn("Failed to initialize OpenTelemetry", "error", err)
	} else {
		a.otel = p
		logProvider = p.LoggerProvider()
	}

	slogMgr.SetFrameState(func() []slog.Attr {
		if a.markers == nil {
			return nil
		}
		return []slog.Attr{
			slog.Int("zoom", a.markers.Zoom()),
			slog.Int("markers", a.markers.Len()),
		}
	})
	slogMgr.Setup(f, config.GetString("logLevel"), logProvider)
	a.logger = slogMgr.Logger()

	a.storeLog = newZerolog(f, config.GetString("logLevel"))

	opts := []marker.Option{
		marker.WithLogger(a.logger),
		marker.WithClock(a.clock.Now),
	}
	if path := config.GetString("scene.path"); path != "" {
		scene, err := style.LoadScene(path)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to load scene: %w", err)
		}
		opts = append(opts, marker.WithScene(scene))
		a.logger.Info("Loaded scene", "path", path)
	}
	a.markers, err = marker.New(opts...)
	if err != nil {
		a.close()
		return nil, err
	}

	mc, err := config.GetMarkerConfig()
	if err != nil {
		a.close()
		return nil, err
	}
	a.commands, err = dispatcher.New(a.logger)
	if err != nil {
		a.close()
		return nil, err
	}
	handlers.NewService(handlers.Dependencies{
		Manager:      a.markers,
		Logger:       a.logger,
		DefaultEase:  mc.DefaultEase,
		EaseDuration: mc.EaseDuration,
	}).RegisterHandlers(a.commands)

	a.logger.Info("markerctl initialized",
		"version", Version,
		"buildDate", BuildDate,
		"logFile", f.Name(),
		"otel", a.otel != nil && a.otel.Enabled(),
	)
	return a, nil
}

func newZerolog(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).
		Level(lvl).With().Timestamp().Str("component", "storage").Logger()
}

func (a *app) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open script: %w", err)
	}
	defer f.Close()

	r := &runner{d: a.commands, clock: a.clock, out: a.out, logger: a.logger}
	failed, err := r.run(f)
	if err != nil {
		return err
	}
	if failed > 0 {
		fmt.Fprintf(a.out, "%d command(s) failed\n", failed)
	}
	return nil
}

// frame runs one update at zoom, or at the manager's current zoom when zoom
// is negative, and prints the draw list.
func (a *app) frame(zoom int) {
	if zoom < 0 {
		zoom = a.markers.Zoom()
	}
	a.markers.Update(zoom)
	printDrawList(a.out, a.markers)
}

func (a *app) openStore() (*storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := storage.Open(config.GetStorageConfig(), a.storeLog)
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close store", "error", err)
		}
	}
	if a.otel != nil {
		if err := a.otel.Shutdown(ctx); err != nil && a.logger != nil {
			a.logger.Warn("Failed to shut down OpenTelemetry", "error", err)
		}
	}
	if a.metricLog != nil {
		_ = a.metricLog.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// Command satchel signs into a learning portal, harvests session
// credentials from observed traffic, and prints course and activity
// notifications as JSON lines.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/satchel/pkg/browser/adapters/chromedp"
	"github.com/odvcencio/satchel/pkg/bus"
	"github.com/odvcencio/satchel/pkg/config"
	"github.com/odvcencio/satchel/pkg/engine"
	"github.com/odvcencio/satchel/pkg/logging"
)

// Version information - set via ldflags during build
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to satchel.yaml")
		debugMode   = flag.Bool("debug", false, "run the browser headful for debugging")
		courses     = flag.Bool("courses", false, "request course enrollments")
		activities  = flag.Bool("activities", false, "request the activity stream")
		wait        = flag.Duration("wait", 60*time.Second, "how long to wait for notifications before exiting")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("satchel %s (%s)\n", version, commit)
		return
	}

	if err := run(*configPath, *debugMode, *courses, *activities, *wait); err != nil {
		fmt.Fprintf(os.Stderr, "satchel: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, debugMode, courses, activities bool, wait time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if debugMode {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	sessionID := uuid.NewString()
	logger, err := logging.NewLogger(cfg.Logging.Dir, sessionID)
	if err != nil {
		return err
	}
	defer logger.Close()
	logger.SetMinLevel(logging.Level(cfg.Logging.Level))

	var b bus.MessageBus
	if cfg.Bus.NATSURL != "" {
		busCfg := bus.DefaultConfig()
		busCfg.URL = cfg.Bus.NATSURL
		b, err = bus.NewNATSBus(busCfg)
		if err != nil {
			return err
		}
	} else {
		b = bus.NewMemoryBus()
	}
	defer b.Close()
	logger.AttachBus(b)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Print every notification as one JSON line.
	_, err = b.Subscribe(ctx, "satchel.>", func(msg *bus.Message) {
		line, err := json.Marshal(map[string]any{
			"subject": msg.Subject,
			"payload": json.RawMessage(msg.Data),
		})
		if err != nil {
			return
		}
		fmt.Println(string(line))
	})
	if err != nil {
		return err
	}

	runtime := chromedp.NewRuntime(!cfg.Debug)
	defer runtime.Close()

	eng, err := engine.New(cfg, logger, b, runtime)
	if err != nil {
		return err
	}
	defer eng.Close()

	// Requests may be queued before the session or credentials are ready;
	// the coordinator holds them until their gates open.
	if courses {
		eng.RequestCourses()
	}
	if activities {
		eng.RequestActivities()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eng.Start(gctx)
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-time.After(wait):
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	return nil
}

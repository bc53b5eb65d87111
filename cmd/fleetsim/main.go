package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fleetsim/internal/persistence/indexdb"
	persistlog "fleetsim/internal/persistence/log"
	"fleetsim/internal/sim/metrics"
	"fleetsim/internal/sim/scenario"
	"fleetsim/internal/sim/tuning"
	"fleetsim/internal/sim/world"
	"fleetsim/internal/transport/observer"
)

func main() {
	// .env never overrides variables already set in the environment.
	_ = godotenv.Load()

	var (
		addr         = flag.String("addr", envString("FLEETSIM_ADDR", ":8080"), "http listen address")
		worldID      = flag.String("world", envString("FLEETSIM_WORLD", ""), "world id (default: scenario world_id, else generated)")
		configDir    = flag.String("configs", envString("FLEETSIM_CONFIGS", "./configs"), "config directory")
		tuningPath   = flag.String("tuning", envString("FLEETSIM_TUNING", ""), "path to tuning.yaml or .toml (default: <configs>/tuning.yaml)")
		scenarioPath = flag.String("scenario", envString("FLEETSIM_SCENARIO", ""), "path to scenario.yaml (default: <configs>/scenario.yaml)")
		dataDir      = flag.String("data", envString("FLEETSIM_DATA", "./data"), "runtime data directory")
		disableDB    = flag.Bool("disable_db", envBool("FLEETSIM_DISABLE_DB", false), "disable the sqlite event index")
		remoteObs    = flag.Bool("observe_remote", envBool("FLEETSIM_OBSERVE_REMOTE", false), "accept observers from non-loopback addresses")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
		tune = tuning.Defaults()
	}

	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.yaml")
	}
	scn, err := scenario.Load(sp)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	id := strings.TrimSpace(*worldID)
	if id == "" {
		id = scn.WorldID
	}
	w, err := world.New(world.WorldConfig{
		ID:     id,
		Tuning: tune,
		Logger: log.New(os.Stdout, "[world] ", log.LstdFlags|log.Lmicroseconds),
	})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	if err := scn.Apply(w); err != nil {
		logger.Fatalf("apply scenario: %v", err)
	}
	logger.Printf("world=%s ships=%d tick_rate=%dHz workers=%d", w.ID(), len(scn.Ships), tune.TickRateHz, tune.Workers)

	worldDir := filepath.Join(*dataDir, "worlds", w.ID())
	if err := os.MkdirAll(worldDir, 0o755); err != nil {
		logger.Fatalf("data dir: %v", err)
	}

	eventLog := persistlog.NewEventLogger(worldDir)
	defer eventLog.Close()
	w.AddTickLogger(eventLog)

	m := metrics.New("fleetsim")
	w.AddTickLogger(m)

	if !*disableDB {
		idx, err := indexdb.OpenSQLite(filepath.Join(worldDir, "index", "events.sqlite"))
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		defer idx.Close()
		if err := idx.UpsertTuning(tune); err != nil {
			logger.Printf("index: upsert tuning: %v", err)
		}
		w.AddTickLogger(idx)
		m.WatchIndexDrops("fleetsim", func() uint64 { return idx.Stats().DropTickTotal })
	}

	hub := observer.NewHub()
	w.AddTickLogger(hub)
	obs := observer.NewServer(hub, log.New(os.Stdout, "[observer] ", log.LstdFlags|log.Lmicroseconds))
	obs.AllowRemote = *remoteObs

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/v1/observe", obs.WSHandler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Printf("listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Printf("stopped: %v", err)
	}
	last := w.LastTick()
	logger.Printf("shutdown at tick=%d ships=%d active=%d queued=%d", last.Tick, last.Ships, last.Active, last.Queued)
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/restcache/restcache"
	"github.com/restcache/restcache/cache"
	"github.com/restcache/restcache/metrics"
)

var (
	// CLI flags
	configFlag         string
	portFlag           int
	originFlag         string
	providerFlag       string
	dbFilenameFlag     string
	sizeFlag           int
	ttlFlag            time.Duration
	sweepFlag          time.Duration
	compressorFlag     string
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&configFlag, "config", "", "YAML config file to use instead of the other flags")
	flag.StringVar(&originFlag, "origin", "", "Origin URL to serve")
	flag.IntVar(&portFlag, "port", 8080, "Port to listen on")
	flag.StringVar(&providerFlag, "provider", "memory", "Cache provider: memory, sqlite, lru, ristretto or gcache")
	flag.StringVar(&dbFilenameFlag, "db", "cache.db", "Cache DB file name for the sqlite provider (use 'memory' for in-memory db)")
	flag.IntVar(&sizeFlag, "size", 10000, "Max entries for the lru, ristretto and gcache providers")
	flag.DurationVar(&ttlFlag, "ttl", restcache.DefaultTTL, "How long responses stay fresh")
	flag.DurationVar(&sweepFlag, "sweep", 0, "How often to drop expired entries (0 disables the sweep)")
	flag.StringVar(&compressorFlag, "compress", "none", "Compress stored bodies: none, snappy or gzip")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stdout)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()

	// set log level
	logLevel := zerolog.DebugLevel
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// set up log output to stdout
	// also output to logfile if specified
	logOutputs := make([]io.Writer, 0)
	logOutputs = append(logOutputs, zerolog.ConsoleWriter{Out: os.Stdout})
	if logFilenameFlag != "" {
		if logFileOutput, err := os.OpenFile(logFilenameFlag, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644); err != nil {
			log.Fatal().Err(err).Msg("Cannot open log file")
		} else {
			logOutputs = append(logOutputs, logFileOutput)
		}
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Str("version", version).Logger()

	cfg := flagConfig()
	if configFlag != "" {
		loaded, err := loadConfig(configFlag)
		if err != nil {
			log.Fatal().Err(err).Msg("Cannot load config file")
		}
		cfg = loaded
	} else if err := cfg.validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	monitor := metrics.NewMonitor(time.Minute)

	client, err := restcache.New(restcache.Config{
		BaseURL:       cfg.Origin,
		TTL:           time.Duration(cfg.TTL),
		Cache:         newProvider(cfg),
		Compressor:    newCompressor(cfg.Compressor),
		Rules:         cfg.rules(),
		Monitor:       monitor,
		Logger:        &log.Logger,
		SweepInterval: time.Duration(cfg.Sweep),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot create cache client")
	}
	defer client.Close()

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(log.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Trace().
			Str("method", r.Method).
			Str("url", r.URL.String()).
			Int("status", status).
			Dur("duration", duration).
			Msg("Request served")
	}))
	r.Route("/.restcache", func(r chi.Router) {
		r.Get("/keys", handleKeys(client))
		r.Get("/stats", handleStats(client))
		r.Post("/invalidate", handleInvalidate(client))
		r.Post("/refresh", handleRefresh(client))
	})
	r.Handle("/metrics", monitor.Handler())
	r.Handle("/*", restcache.NewProxy(client))

	log.Info().Msgf("Serving port %v from %s (provider '%s')", cfg.Port, cfg.Origin, cfg.Provider)
	err = http.ListenAndServe(fmt.Sprintf(":%d", cfg.Port), r)

	if err != nil {
		panic(err)
	}
}

func flagConfig() config {
	return config{
		Port:       portFlag,
		Origin:     originFlag,
		Provider:   providerFlag,
		DBFile:     dbFilenameFlag,
		Size:       sizeFlag,
		TTL:        duration(ttlFlag),
		Sweep:      duration(sweepFlag),
		Compressor: compressorFlag,
	}
}

func newProvider(cfg config) cache.Provider {
	switch cfg.Provider {
	case "sqlite":
		dbFilename := cfg.DBFile
		if dbFilename == "memory" {
			dbFilename = "file::memory:?cache=shared"
		}
		return cache.NewSQLite(dbFilename)
	case "lru":
		return cache.NewLRU(cfg.Size)
	case "ristretto":
		// rough budget of 64KB per entry
		return cache.NewRistretto(int64(cfg.Size), int64(cfg.Size)*64*1024)
	case "gcache":
		return cache.NewGcache(cfg.Size)
	default:
		return cache.NewMemory()
	}
}

func newCompressor(name string) restcache.Compressor {
	switch name {
	case "snappy":
		return restcache.CompressorSnappy{}
	case "gzip":
		return restcache.CompressorGzip{}
	default:
		return nil
	}
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/fna/tracker/internal/config"
	"github.com/fna/tracker/internal/database"
	"github.com/fna/tracker/internal/reporter"
	"github.com/fna/tracker/internal/scheduler"
	"github.com/fna/tracker/internal/stats"
	"github.com/fna/tracker/internal/summarizer"
	"github.com/fna/tracker/internal/web"
)

var (
	version = "0.3.0"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "serve":
		serve()
	case "summarize":
		summarize()
	case "stats":
		printStats()
	case "history":
		printHistory()
	case "version":
		fmt.Printf("tracker version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`tracker - personal device-usage statistics core

Usage:
  tracker <command> [options]

Commands:
  serve                      Start the API server
  summarize                  Run the daily summarization job once (targets yesterday)
  stats [date]               Print the daily snapshot (date: YYYY-MM-DD, default today)
  history [period] [date]    Print history (period: weekly, monthly, yearly)
  version                    Show version information
  help                       Show this help message

Examples:
  tracker serve
  tracker stats 2026-08-30
  tracker history monthly

Environment Variables:
  TRACKER_CONFIG                Optional YAML config file path
  TRACKER_DB_PATH               Database file path
  TRACKER_TIMEZONE              IANA timezone for calendar-day math
  TRACKER_SUMMARIZER_SECRET     Bearer token for the summarize endpoint
  TRACKER_INGEST_SECRET         Shared secret for the wearable ingest endpoint
  TRACKER_SCHEDULE_ENABLED      Run the summarizer in-process once a day
  TRACKER_LOG_LEVEL             trace|debug|info|warn|error

Version: %s
`, version)
}

// app bundles the shared wiring of every command.
type app struct {
	cfg       *config.Config
	loc       *time.Location
	db        *database.DB
	metrics   *database.MetricRepository
	summaries *database.SummaryRepository
	builder   *stats.Builder
	job       *summarizer.Summarizer
	log       zerolog.Logger
}

func newApp() *app {
	cfg, err := config.Load(os.Getenv("TRACKER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	loc, err := cfg.TimeLocation()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid timezone")
	}

	db, err := database.Connect(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database schema")
	}

	metrics := database.NewMetricRepository(db, cfg.Devices.ReaderID)
	summaries := database.NewSummaryRepository(db)
	builder := stats.NewBuilder(cfg, loc, metrics, summaries, log)
	job := summarizer.New(cfg, loc, metrics, summaries, log)

	return &app{
		cfg:       cfg,
		loc:       loc,
		db:        db,
		metrics:   metrics,
		summaries: summaries,
		builder:   builder,
		job:       job,
		log:       log,
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var log zerolog.Logger
	if cfg.LogPretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func serve() {
	a := newApp()
	defer a.db.Close()

	a.log.Info().Msgf("configuration:\n%s", a.cfg.String())

	handler := web.NewHandler(a.cfg, a.builder, a.summaries, a.metrics, a.job, a.log)
	server := web.NewServer(a.cfg, handler, a.log)

	var sched *scheduler.Scheduler
	if a.cfg.Summarizer.ScheduleEnabled {
		sched = scheduler.New(a.job, a.cfg.Summarizer.ScheduleAt, a.log)
		sched.Start()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		a.log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		a.log.Error().Err(err).Msg("server error")
	}

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		a.log.Error().Err(err).Msg("shutdown error")
	}
}

func summarize() {
	a := newApp()
	defer a.db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := a.job.Run(ctx); err != nil {
		a.log.Fatal().Err(err).Msg("summarization failed")
	}
	fmt.Println("Summarization completed")
}

func printStats() {
	a := newApp()
	defer a.db.Close()

	dateStr := ""
	if len(os.Args) > 2 {
		dateStr = os.Args[2]
	}

	rep := reporter.New(a.builder)
	snapshot, err := rep.DailyReport(context.Background(), dateStr)
	if err != nil {
		a.log.Fatal().Err(err).Msg("failed to build daily stats")
	}
	fmt.Print(rep.FormatText(snapshot))
}

func printHistory() {
	a := newApp()
	defer a.db.Close()

	period := stats.PeriodWeekly
	if len(os.Args) > 2 {
		period = os.Args[2]
	}
	dateStr := ""
	if len(os.Args) > 3 {
		dateStr = os.Args[3]
	}

	payload, err := a.builder.History(context.Background(), a.summaries, period, dateStr)
	if err != nil {
		a.log.Fatal().Err(err).Msg("failed to build history")
	}

	rep := reporter.New(a.builder)
	out, err := rep.FormatJSON(payload)
	if err != nil {
		a.log.Fatal().Err(err).Msg("failed to format history")
	}
	fmt.Println(out)
}

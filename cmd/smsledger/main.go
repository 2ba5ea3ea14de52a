package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/rumor-ml/commons.systems/smsledger/internal/config"
	"github.com/rumor-ml/commons.systems/smsledger/internal/dedup"
	"github.com/rumor-ml/commons.systems/smsledger/internal/domain"
	"github.com/rumor-ml/commons.systems/smsledger/internal/extract"
	"github.com/rumor-ml/commons.systems/smsledger/internal/observability"
	"github.com/rumor-ml/commons.systems/smsledger/internal/output"
	"github.com/rumor-ml/commons.systems/smsledger/internal/parse"
	"github.com/rumor-ml/commons.systems/smsledger/internal/pipeline"
	"github.com/rumor-ml/commons.systems/smsledger/internal/queue"
	"github.com/rumor-ml/commons.systems/smsledger/internal/remote"
	"github.com/rumor-ml/commons.systems/smsledger/internal/server"
	"github.com/rumor-ml/commons.systems/smsledger/internal/store"
	"github.com/rumor-ml/commons.systems/smsledger/internal/ui"
	"github.com/rumor-ml/commons.systems/smsledger/internal/validate"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Mode flags
	serve    = flag.Bool("serve", false, "Run the HTTP API server")
	syncOnly = flag.Bool("sync", false, "Drain the offline queue and exit")

	// Batch mode flags
	inputFile  = flag.String("input", "", "JSONL file of messages to process (default: stdin)")
	outputFile = flag.String("output", "", "Export accepted transactions to JSON file")
	mergeMode  = flag.Bool("merge", false, "Merge export with existing output file")
	dryRun     = flag.Bool("dry-run", false, "Parse and validate without saving")
	verbose    = flag.Bool("verbose", false, "Show detailed processing logs")

	// Overrides for environment configuration
	ownerID      = flag.String("owner", "", "Owner user ID (overrides SMSLEDGER_OWNER_ID)")
	projectID    = flag.String("project", "", "Firebase project ID (overrides SMSLEDGER_PROJECT_ID)")
	dbPath       = flag.String("db", "", "Local database path (overrides SMSLEDGER_DB_PATH)")
	keywordsFile = flag.String("keywords", "", "Keyword sets YAML file (default: embedded)")

	// Maintenance flags
	dedupMaxAge = flag.Duration("dedup-max-age", 0, "Remove dedup records older than this before processing (0 = keep all)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `smsledger - SMS transaction ledger

Usage:
  smsledger [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Process a batch of exported messages
  smsledger -owner user123 -project my-project -input messages.jsonl

  # Preview what a batch would produce without saving
  smsledger -input messages.jsonl -dry-run

  # Drain the offline queue
  smsledger -owner user123 -project my-project -sync

  # Run the API server
  smsledger -owner user123 -project my-project -serve

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("smsledger version %s\n", version)
		os.Exit(0)
	}

	if err := run(); err != nil {
		ui.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if *ownerID != "" {
		cfg.OwnerID = *ownerID
	}
	if *projectID != "" {
		cfg.ProjectID = *projectID
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *keywordsFile != "" {
		cfg.KeywordsFile = *keywordsFile
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if *dryRun {
		return runDryRun(cfg)
	}
	if *serve {
		return runServer(ctx, cfg, logger)
	}
	return runBatch(ctx, cfg, logger)
}

// runDryRun parses and validates messages without any remote or local
// writes. It needs no credentials, so it works offline.
func runDryRun(cfg *config.Config) error {
	kw, err := loadKeywords(cfg)
	if err != nil {
		return err
	}
	parser := parse.New(kw, nil)
	validator := validate.New(validate.Config{
		MaxAmount:     cfg.MaxAmount,
		RetentionDays: cfg.RetentionDays,
	})

	msgs, err := readMessages(*inputFile)
	if err != nil {
		return err
	}

	ui.Header("Dry Run")
	accepted, rejected := 0, 0
	for _, msg := range msgs {
		parsed, err := parser.Parse(msg)
		if err != nil {
			rejected++
			if *verbose {
				fmt.Fprintf(os.Stderr, "  rejected (%v): %s\n", err, msg.Content)
			}
			continue
		}
		txn, err := domain.NewPersistedTransaction(*parsed, "dry-run", dedup.Hash(msg), false)
		if err != nil {
			rejected++
			continue
		}
		if outcome := validator.Validate(txn); !outcome.Valid {
			rejected++
			if *verbose {
				fmt.Fprintf(os.Stderr, "  invalid %v: %s\n", outcome.Errors, msg.Content)
			}
			continue
		}
		accepted++
		ui.Info(fmt.Sprintf("%s %.2f on %s (confidence %.2f)",
			txn.Type, txn.Amount, txn.Date, txn.Confidence))
	}
	ui.Success(fmt.Sprintf("Dry run complete: %d would be saved, %d rejected", accepted, rejected))
	return nil
}

// runBatch processes a message export end to end, then drains the
// offline queue.
func runBatch(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	pipe, cleanup, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if *syncOnly {
		ui.Header("Sync")
		synced, err := pipe.TriggerSync(ctx)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		ui.Success(fmt.Sprintf("Synced %d queued records", synced))
		return nil
	}

	msgs, err := readMessages(*inputFile)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return fmt.Errorf("no messages to process (use -input or pipe JSONL to stdin)")
	}

	ui.Header("Processing Messages")
	ui.Step(1, 2, fmt.Sprintf("Processing %d messages", len(msgs)))

	var accepted []*domain.PersistedTransaction
	for i, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return err
		}
		result, err := pipe.ProcessIncoming(ctx, msg)
		if err != nil {
			ui.Warning(fmt.Sprintf("message %d failed: %v", i+1, err))
		} else if result.Outcome == pipeline.OutcomeAccepted {
			accepted = append(accepted, result.Transaction)
		}
		if !*verbose {
			ui.Progress(i+1, len(msgs))
		}
	}
	ui.Done()

	ui.Step(2, 2, "Draining offline queue")
	synced, err := pipe.TriggerSync(ctx)
	if err != nil {
		ui.Warning(fmt.Sprintf("queue sync failed: %v", err))
	} else if synced > 0 {
		ui.Success(fmt.Sprintf("Synced %d queued records", synced))
	}

	if *outputFile != "" && len(accepted) > 0 {
		export := &output.Export{Transactions: accepted}
		opts := output.WriteOptions{FilePath: *outputFile, MergeMode: *mergeMode}
		if err := output.WriteExportToFile(export, opts); err != nil {
			return err
		}
		ui.Success(fmt.Sprintf("Exported %d transactions to %s", len(accepted), *outputFile))
	}

	stats := pipe.Statistics()
	queued, _ := pipe.QueueSize()
	ui.Header("Summary")
	ui.Info(fmt.Sprintf("Received:   %d", stats.TotalReceived))
	ui.Info(fmt.Sprintf("Saved:      %d", stats.Saved))
	ui.Info(fmt.Sprintf("Rejected:   %d", stats.TotalReceived-stats.Saved-stats.Queued-stats.Duplicates-stats.Errors))
	ui.Info(fmt.Sprintf("Duplicates: %d", stats.Duplicates))
	if queued > 0 {
		ui.Warning(fmt.Sprintf("Still queued offline: %d", queued))
	}
	return nil
}

// runServer runs the HTTP API until interrupted.
func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer srv.Close()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.Int("port", cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// buildPipeline wires the full stack for command-line use. The returned
// cleanup closes storage.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*pipeline.Pipeline, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	kw, err := loadKeywords(cfg)
	if err != nil {
		return nil, nil, err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open local database: %w", err)
	}

	detector := dedup.New(db.DedupTable())
	if *dedupMaxAge > 0 {
		removed, err := detector.Cleanup(*dedupMaxAge)
		if err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("dedup cleanup failed: %w", err)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Removed %d old dedup records\n", removed)
		}
	}

	fsStore, err := remote.NewFirestoreStore(ctx, cfg.ProjectID, cfg.CredentialsFile)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	metrics := observability.NewMetrics()
	resilient := remote.NewResilientStore(fsStore, logger)
	q := queue.New(db.QueueTable(), resilient, logger, metrics)

	pipe := pipeline.New(
		cfg.OwnerID,
		parse.New(kw, logger),
		validate.New(validate.Config{MaxAmount: cfg.MaxAmount, RetentionDays: cfg.RetentionDays}),
		detector,
		resilient,
		q,
		logger,
		metrics,
	)

	cleanup := func() {
		fsStore.Close()
		db.Close()
	}
	return pipe, cleanup, nil
}

func loadKeywords(cfg *config.Config) (*extract.Keywords, error) {
	if cfg.KeywordsFile != "" {
		return extract.LoadFromFile(cfg.KeywordsFile)
	}
	return extract.LoadEmbedded()
}

// readMessages reads one JSON message per line from the given file, or
// stdin when path is empty.
func readMessages(path string) ([]domain.RawMessage, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var msgs []domain.RawMessage
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(text) == 0 {
			continue
		}
		var msg domain.RawMessage
		if err := json.Unmarshal(text, &msg); err != nil {
			return nil, fmt.Errorf("invalid message on line %d: %w", line, err)
		}
		if msg.ReceivedAt.IsZero() {
			msg.ReceivedAt = time.Now()
		}
		msgs = append(msgs, msg)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return msgs, nil
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/brain"
	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/feedback"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/inference"
	"github.com/khanglvm/moodbrain/internal/jobs"
	"github.com/khanglvm/moodbrain/internal/mcp"
	"github.com/khanglvm/moodbrain/internal/metrics"
	"github.com/khanglvm/moodbrain/internal/search"
)

// NewServeCmd creates the 'serve' command for running the MCP server.
func NewServeCmd() *cobra.Command {
	var noIndex bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server (stdio transport)",
		Long: `Start the moodbrain MCP server using stdio transport.

The server exposes 4 tools to AI clients:
  • mood_classify - Suggest a mood label for text
  • mood_correct  - Record the label a user chose
  • mood_labels   - List the label vocabulary
  • mood_similar  - Find similar corpus examples

Depending on the configuration it also runs the brain updater on a
schedule (training.updateSchedule), reloads the model after updates or
corpus changes (training.retrainMode), and serves Prometheus metrics
(metrics.addr).`,
		Example: `  # Run directly
  moodbrain serve

  # Add to Claude Code
  claude mcp add moodbrain -- moodbrain serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, noIndex)
		},
	}

	cmd.Flags().BoolVar(&noIndex, "no-index", false, "Disable the mood_similar search index")

	return cmd
}

// refreshIndex returns an install hook that rebuilds index from the corpus
// snapshot each new model was trained on.
func refreshIndex(index *search.Indexer, logger *zap.Logger) func(*corpus.Corpus) {
	return func(c *corpus.Corpus) {
		if err := index.IndexCorpus(c); err != nil {
			logger.Warn("Search index not refreshed", zap.Error(err))
			return
		}
		if n, err := index.Count(); err == nil {
			logger.Debug("Search index rebuilt", zap.Uint64("examples", n))
		}
	}
}

// runServe wires the classifier, collector and background jobs, then serves
// stdio until stdin closes or SIGINT/SIGTERM arrives.
func runServe(cmd *cobra.Command, noIndex bool) (err error) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()
	logger := e.logger
	cfg := e.cfg

	mode, err := jobs.ParseRetrainMode(cfg.Training.RetrainMode)
	if err != nil {
		return err
	}

	m := metrics.New()

	store, err := openFeedbackStore(ctx, e)
	if err != nil {
		return err
	}

	collector := feedback.NewCollector(store,
		feedback.WithLogger(logger),
		feedback.WithMetrics(m),
		feedback.WithVocabulary(e.vocab),
		feedback.WithQueueSize(cfg.Feedback.QueueSize),
	)
	m.RegisterQueueDepth(collector.QueueLen)

	extractor := features.New()
	serviceOpts := []inference.Option{
		inference.WithLogger(logger),
		inference.WithMetrics(m),
		inference.WithCacheTTL(cfg.CacheTTL()),
	}

	var index *search.Indexer
	if !noIndex {
		if index, err = search.NewIndexer(extractor, logger); err != nil {
			collector.Stop()
			return multierr.Append(err, store.Close())
		}
		serviceOpts = append(serviceOpts, inference.WithInstallHook(refreshIndex(index, logger)))
	}

	service := inference.New(e.corpus, extractor, serviceOpts...)
	if err := service.Reload(ctx); err != nil {
		// Classify reports not-ready until a later reload succeeds.
		logger.Warn("Classifier not ready at startup", zap.Error(err))
	}

	updater := brain.NewUpdater(e.corpus, store, e.vocab,
		brain.WithLogger(logger),
		brain.WithMetrics(m),
	)
	scheduler, err := jobs.NewScheduler(updater, service, mode, logger)
	if err != nil {
		collector.Stop()
		return multierr.Combine(err, closeIndex(index), store.Close())
	}
	if cfg.Training.UpdateSchedule != "" {
		if err := scheduler.ScheduleUpdate(cfg.Training.UpdateSchedule); err != nil {
			collector.Stop()
			return multierr.Combine(err, scheduler.Shutdown(), closeIndex(index), store.Close())
		}
	}
	scheduler.Start()

	defer func() {
		collector.Stop()
		err = multierr.Combine(err, scheduler.Shutdown(), closeIndex(index), store.Close())
		logger.Info("Shutdown complete")
	}()

	if mode == jobs.RetrainWatch {
		if err := os.MkdirAll(filepath.Dir(e.corpus.Path()), 0755); err != nil {
			return fmt.Errorf("failed to create corpus directory: %w", err)
		}
		watcher := jobs.NewCorpusWatcher(e.corpus.Path(), service, jobs.DefaultDebounce, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("Corpus watcher stopped", zap.Error(err))
			}
		}()
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server stopped", zap.String("addr", cfg.Metrics.Addr), zap.Error(err))
			}
		}()
		logger.Info("Serving metrics", zap.String("addr", cfg.Metrics.Addr))
	}

	server := mcp.NewServer(service, collector, e.vocab,
		mcp.WithLogger(logger),
		mcp.WithIndex(index),
	)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run(ctx, os.Stdin, cmd.OutOrStdout())
	}()

	logger.Info("MCP server ready", zap.String("retrainMode", string(mode)), zap.String("feedback", cfg.Feedback.Backend))

	select {
	case <-ctx.Done():
		logger.Info("Received signal, shutting down gracefully")
		return nil
	case err := <-errChan:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

func closeIndex(index *search.Indexer) error {
	if index == nil {
		return nil
	}
	return index.Close()
}

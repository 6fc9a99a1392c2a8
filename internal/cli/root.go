/*
Package cli implements the moodbrain commands.

Every command reads the configuration from --config, $MOODBRAIN_CONFIG or
~/.moodbrain.json, creating the default file on first use. Logs go to stderr;
command output goes to stdout.
*/
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanglvm/moodbrain/internal/config"
	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/logging"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/version"
)

// configPath is set by the persistent --config flag.
var configPath string

// NewRootCmd creates the moodbrain root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "moodbrain",
		Short: "Mood classifier that learns from user corrections",
		Long: `moodbrain suggests a mood label for short texts with a Naive Bayes
classifier trained on a labeled corpus.

Users correct the suggestions; corrections are stored and periodically
merged back into the corpus by the brain updater, so the classifier keeps
learning from its users.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $MOODBRAIN_CONFIG or ~/.moodbrain.json)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewClassifyCmd())
	rootCmd.AddCommand(NewCorrectCmd())
	rootCmd.AddCommand(NewTrainCmd())
	rootCmd.AddCommand(NewEvaluateCmd())
	rootCmd.AddCommand(NewUpdateCmd())
	rootCmd.AddCommand(NewCorpusCmd())
	rootCmd.AddCommand(NewFeedbackCmd())
	rootCmd.AddCommand(NewConfigCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// resolveConfigPath returns --config or the default location.
func resolveConfigPath() (string, error) {
	if configPath != "" {
		return config.ExpandPath(configPath)
	}
	return config.GetDefaultConfigPath()
}

// env holds what most commands need: configuration, logger, labels and corpus.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	vocab  *mood.Vocabulary
	corpus *corpus.FileStore
}

// loadEnv reads the configuration, creating it if missing, and builds the logger.
func loadEnv() (*env, error) {
	path, err := resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, _, err := config.LoadOrCreate(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}

	vocab, err := cfg.Vocabulary()
	if err != nil {
		return nil, err
	}

	corpusPath, err := cfg.CorpusPath()
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		vocab:  vocab,
		corpus: corpus.NewFileStore(corpusPath, vocab, logger),
	}, nil
}

func (e *env) close() {
	_ = e.logger.Sync()
}

// corpusHint decorates corpus errors with the command that fixes them.
func corpusHint(err error) error {
	return fmt.Errorf("%w\n💡 Run 'moodbrain corpus init' to create a starter corpus", err)
}

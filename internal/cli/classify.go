package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/feedback"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/inference"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/storage"
)

// NewClassifyCmd creates the 'classify' command.
func NewClassifyCmd() *cobra.Command {
	var showProbs bool

	cmd := &cobra.Command{
		Use:   "classify <text>",
		Short: "Suggest a mood label for text",
		Long: `Train a classifier from the corpus and print the suggested mood label.

All arguments are joined with spaces to form the text.`,
		Example: `  moodbrain classify "finally finished the project"
  moodbrain classify --probabilities I could sleep for a week`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, strings.Join(args, " "), showProbs)
		},
	}

	cmd.Flags().BoolVarP(&showProbs, "probabilities", "p", false, "Show the probability of every label")

	return cmd
}

func runClassify(cmd *cobra.Command, text string, showProbs bool) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc := inference.New(e.corpus, features.New(), inference.WithLogger(e.logger))
	label, err := svc.Classify(ctx, text)
	if err != nil {
		if errors.Is(err, corpus.ErrCorpusUnavailable) {
			return corpusHint(err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, label)

	if showProbs {
		probs, err := svc.Probabilities(ctx, text)
		if err != nil {
			return err
		}
		labels := make([]mood.Label, 0, len(probs))
		for l := range probs {
			labels = append(labels, l)
		}
		sort.Slice(labels, func(i, j int) bool {
			if probs[labels[i]] != probs[labels[j]] {
				return probs[labels[i]] > probs[labels[j]]
			}
			return labels[i] < labels[j]
		})
		for _, l := range labels {
			fmt.Fprintf(out, "  %-10s %6.2f%%\n", l, probs[l]*100)
		}
	}
	return nil
}

// NewCorrectCmd creates the 'correct' command.
func NewCorrectCmd() *cobra.Command {
	var label, suggestion, submitter string

	cmd := &cobra.Command{
		Use:   "correct <text>",
		Short: "Record the mood label a user chose for text",
		Long: `Queue a correction for the feedback store. The next brain update adds it
to the corpus. With the memory backend nothing outlives the command.

Corrections that agree with --suggestion are not recorded.`,
		Example: `  moodbrain correct "long day at work" --label tired --suggestion sad`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd, strings.Join(args, " "), label, suggestion, submitter)
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label the user chose (required)")
	cmd.Flags().StringVarP(&suggestion, "suggestion", "s", "", "Label the classifier suggested")
	cmd.Flags().StringVar(&submitter, "submitter", os.Getenv("USER"), "Submitter ID")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

func runCorrect(cmd *cobra.Command, text, label, suggestion, submitter string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if strings.TrimSpace(text) == "" {
		return errors.New("text must not be empty")
	}
	userLabel, err := e.vocab.Parse(label)
	if err != nil {
		return err
	}
	suggested := mood.NoLabel
	if suggestion != "" {
		if suggested, err = e.vocab.Parse(suggestion); err != nil {
			return fmt.Errorf("suggestion: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	if suggested == userLabel {
		fmt.Fprintf(out, "Label '%s' matches the suggestion; nothing to learn.\n", userLabel)
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := openFeedbackStore(ctx, e)
	if err != nil {
		return err
	}
	defer store.Close()

	collector := feedback.NewCollector(store,
		feedback.WithLogger(e.logger),
		feedback.WithVocabulary(e.vocab),
	)
	collector.RecordCorrection(text, suggested, userLabel, submitter)
	collector.Stop()

	fmt.Fprintf(out, "✓ Correction queued: '%s'\n", userLabel)
	if e.cfg.Feedback.Backend == storage.BackendMemory {
		fmt.Fprintln(out, "⚠ feedback.backend is memory: the correction is lost when this command exits")
		fmt.Fprintln(out, "💡 Use the sqlite or mongodb backend to keep corrections for the next update")
	}
	return nil
}

// openFeedbackStore opens the configured feedback backend.
func openFeedbackStore(ctx context.Context, e *env) (storage.FeedbackStore, error) {
	opts, err := e.cfg.StorageOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = e.logger

	store, err := storage.Open(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback store: %w", err)
	}
	return store, nil
}

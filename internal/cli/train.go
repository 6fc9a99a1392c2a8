package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanglvm/moodbrain/internal/classifier"
	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/mood"
)

// NewTrainCmd creates the 'train' command.
func NewTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a model from the corpus and show its statistics",
		Long: `Train the Naive Bayes classifier from the corpus and print per-label
example and token counts. Fails if the corpus is missing or empty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrain(cmd)
		},
	}

	return cmd
}

func runTrain(cmd *cobra.Command) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	c, err := loadCorpus(cmd, e)
	if err != nil {
		return err
	}

	model, err := classifier.Train(c, features.New())
	if err != nil {
		return corpusHint(err)
	}

	stats := model.Stats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Trained on %d examples, vocabulary %d tokens\n\n", stats.Examples, stats.VocabularySize)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tEXAMPLES\tTOKENS\tPRIOR")
	for _, label := range stats.Labels {
		fmt.Fprintf(w, "%s\t%d\t%d\t%.3f\n", label, stats.ExamplesPer[label], stats.TokensPer[label], model.Prior(label))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	var missing []string
	for _, label := range e.vocab.Labels() {
		if _, ok := stats.ExamplesPer[label]; !ok {
			missing = append(missing, string(label))
		}
	}
	if len(missing) > 0 {
		fmt.Fprintf(out, "\n⚠ Labels without examples (never suggested): %v\n", missing)
	}
	return nil
}

// NewEvaluateCmd creates the 'evaluate' command.
func NewEvaluateCmd() *cobra.Command {
	var ratio float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure accuracy on a held-out split of the corpus",
		Long: `Shuffle the corpus with a fixed seed, train on one part and report
accuracy and the confusion matrix on the rest.`,
		Example: `  moodbrain evaluate
  moodbrain evaluate --ratio 0.7 --seed 7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, ratio, seed)
		},
	}

	cmd.Flags().Float64Var(&ratio, "ratio", 0.8, "Share of examples used for training")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Shuffle seed")

	return cmd
}

func runEvaluate(cmd *cobra.Command, ratio float64, seed int64) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	c, err := loadCorpus(cmd, e)
	if err != nil {
		return err
	}

	train, test := corpus.Split(c.Examples(), ratio, seed)
	if len(test) == 0 {
		return errors.New("corpus too small to evaluate: need at least 2 examples")
	}
	trainCorpus, err := corpus.FromExamples(train)
	if err != nil {
		return err
	}

	model, err := classifier.Train(trainCorpus, features.New())
	if err != nil {
		return corpusHint(err)
	}
	result := classifier.Evaluate(model, test)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Train: %d  Test: %d\n", len(train), len(test))
	fmt.Fprintf(out, "Accuracy: %.2f%% (%d/%d)\n\n", result.Accuracy()*100, result.Correct, result.Total)

	labels := e.vocab.Labels()
	w := tabwriter.NewWriter(out, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "actual\\predicted\t")
	for _, l := range labels {
		fmt.Fprintf(w, "%s\t", l)
	}
	fmt.Fprintln(w)
	for _, actual := range sortedActual(result) {
		fmt.Fprintf(w, "%s\t", actual)
		for _, predicted := range labels {
			fmt.Fprintf(w, "%d\t", result.Confusion[actual][predicted])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func sortedActual(m classifier.Metrics) []mood.Label {
	labels := make([]mood.Label, 0, len(m.Confusion))
	for l := range m.Confusion {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// loadCorpus reads the configured corpus.
func loadCorpus(cmd *cobra.Command, e *env) (*corpus.Corpus, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c, err := e.corpus.Load(ctx)
	if err != nil {
		return nil, corpusHint(err)
	}
	return c, nil
}

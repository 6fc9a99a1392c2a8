package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/khanglvm/moodbrain/internal/corpus"
	"github.com/khanglvm/moodbrain/internal/features"
	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/search"
)

// NewCorpusCmd creates the 'corpus' command group.
func NewCorpusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the training corpus",
	}

	cmd.AddCommand(newCorpusInitCmd())
	cmd.AddCommand(newCorpusImportCmd())
	cmd.AddCommand(newCorpusSearchCmd())
	cmd.AddCommand(newCorpusListCmd())
	cmd.AddCommand(newCorpusStatsCmd())

	return cmd
}

func newCorpusInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in starter corpus",
		Long: `Write the built-in starter corpus to corpus.path. Examples with labels
outside the configured vocabulary are left out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if _, err := os.Stat(e.corpus.Path()); err == nil && !force {
				return fmt.Errorf("corpus already exists: %s\n💡 Use --force to overwrite (a .bak copy is kept)", e.corpus.Path())
			}

			seed, err := corpus.Seed(e.vocab)
			if err != nil {
				return err
			}
			if err := e.corpus.Save(cmd.Context(), seed); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d examples to %s\n", seed.Len(), e.corpus.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing corpus")

	return cmd
}

func newCorpusImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Add text,label rows from a CSV file",
		Long: `Append examples from a CSV file with text,label columns. A header row is
skipped. Texts already in the corpus and rows with unknown labels are
ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			c, err := e.corpus.Load(cmd.Context())
			if err != nil {
				if !errors.Is(err, fs.ErrNotExist) {
					return err
				}
				c = corpus.New()
			}

			report, err := corpus.ImportCSVFile(c, args[0], e.vocab)
			if err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}
			if report.Added > 0 {
				if err := e.corpus.Save(cmd.Context(), c); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d of %d rows (%d duplicates, %d skipped); corpus has %d examples\n",
				report.Added, report.Rows, report.Duplicates, report.Skipped, c.Len())
			return nil
		},
	}

	return cmd
}

func newCorpusSearchCmd() *cobra.Command {
	var label string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find corpus examples similar to text",
		Example: `  moodbrain corpus search "can't stop worrying"
  moodbrain corpus search exam --label anxious --limit 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			filter := mood.NoLabel
			if label != "" {
				if filter, err = e.vocab.Parse(label); err != nil {
					return err
				}
			}

			index, err := openIndex(cmd, e)
			if err != nil {
				return err
			}
			defer index.Close()

			results, err := index.Similar(strings.Join(args, " "), filter, limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "No similar examples.")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCORE\tLABEL\tTEXT")
			for _, r := range results {
				fmt.Fprintf(w, "%.3f\t%s\t%s\n", r.Score, r.Label, truncate(r.Text, 70))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Only show examples with this label")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results")

	return cmd
}

func newCorpusListCmd() *cobra.Command {
	var label string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List corpus examples",
		Example: `  moodbrain corpus list --limit 20
  moodbrain corpus list --label tired`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			filter := mood.NoLabel
			if label != "" {
				if filter, err = e.vocab.Parse(label); err != nil {
					return err
				}
			}

			index, err := openIndex(cmd, e)
			if err != nil {
				return err
			}
			defer index.Close()

			var results []search.Result
			if filter != mood.NoLabel {
				results, err = index.ByLabel(filter, limit)
			} else {
				results, err = index.All(limit)
			}
			if err != nil {
				return err
			}
			total, err := index.Count()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tTEXT")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\n", r.Label, truncate(r.Text, 70))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nShowing %d of %d examples\n", len(results), total)
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Only show examples with this label")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum examples to show")

	return cmd
}

// openIndex loads the corpus into a fresh in-memory index. The caller closes it.
func openIndex(cmd *cobra.Command, e *env) (*search.Indexer, error) {
	c, err := loadCorpus(cmd, e)
	if err != nil {
		return nil, err
	}

	index, err := search.NewIndexer(features.New(), e.logger)
	if err != nil {
		return nil, err
	}
	if err := index.IndexCorpus(c); err != nil {
		index.Close()
		return nil, err
	}
	return index, nil
}

func newCorpusStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show example counts per label",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.close()

			c, err := loadCorpus(cmd, e)
			if err != nil {
				return err
			}

			counts := c.LabelCounts()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Corpus: %s\n\n", e.corpus.Path())

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "LABEL\tEXAMPLES")
			for _, l := range e.vocab.Labels() {
				fmt.Fprintf(w, "%s\t%d\n", l, counts[l])
			}
			fmt.Fprintf(w, "total\t%d\n", c.Len())
			return w.Flush()
		},
	}

	return cmd
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/khanglvm/moodbrain/internal/brain"
)

// NewUpdateCmd creates the 'update' command.
func NewUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge pending corrections into the corpus",
		Long: `Run the brain updater once: read pending corrections from the feedback
store, add new texts to the corpus, save it, then delete the consumed
corrections. Running it again is harmless.

A running 'moodbrain serve' picks up the new corpus according to
training.retrainMode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd)
		},
	}

	return cmd
}

func runUpdate(cmd *cobra.Command) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	store, err := openFeedbackStore(ctx, e)
	if err != nil {
		return err
	}
	defer store.Close()

	updater := brain.NewUpdater(e.corpus, store, e.vocab, brain.WithLogger(e.logger))
	report, err := updater.Run(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if report.Pending == 0 {
		fmt.Fprintln(out, "No pending corrections.")
		return nil
	}
	fmt.Fprintf(out, "✓ Brain updated: %d pending, %d accepted, %d duplicates, %d rejected, %d deleted\n",
		report.Pending, report.Accepted, report.Duplicates, report.Rejected, report.Deleted)
	fmt.Fprintf(out, "  Corpus now has %d examples\n", report.CorpusSize)
	return nil
}

// NewFeedbackCmd creates the 'feedback' command group.
func NewFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Inspect stored corrections",
	}
	cmd.AddCommand(newFeedbackPendingCmd())
	return cmd
}

func newFeedbackPendingCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "pending",
		Short: "List corrections not yet merged into the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeedbackPending(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	return cmd
}

func runFeedbackPending(cmd *cobra.Command, jsonOutput bool) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.close()

	ctx := cmd.Context()
	store, err := openFeedbackStore(ctx, e)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.PendingFeedback(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No pending corrections.")
		return nil
	}

	fmt.Fprintf(out, "Pending corrections (%d):\n\n", len(records))
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tLABEL\tSUGGESTED\tTEXT")
	for _, rec := range records {
		suggested := string(rec.ModelSuggestion)
		if suggested == "" {
			suggested = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rec.SubmittedAt.Local().Format(time.DateTime), rec.UserLabel, suggested, truncate(rec.Text, 60))
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

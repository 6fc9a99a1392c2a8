/*
Package jobs runs the background work of a long-lived server: the scheduled
brain update and the configured retrain trigger.

The brain updater only rewrites the corpus. Whether a running server picks
up the new corpus is decided by RetrainMode:

	manual        nothing happens until an explicit reload or restart
	after-update  a scheduled update that accepted examples reloads the model
	watch         any write to the corpus file reloads the model
*/
package jobs

import (
	"context"
	"fmt"
	"strings"

	"github.com/khanglvm/moodbrain/internal/brain"
)

// RetrainMode selects what makes a running server retrain.
type RetrainMode string

const (
	RetrainManual      RetrainMode = "manual"
	RetrainAfterUpdate RetrainMode = "after-update"
	RetrainWatch       RetrainMode = "watch"
)

// ParseRetrainMode parses a mode name. Empty means manual.
func ParseRetrainMode(s string) (RetrainMode, error) {
	switch mode := RetrainMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return RetrainManual, nil
	case RetrainManual, RetrainAfterUpdate, RetrainWatch:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown retrain mode %q (valid: manual, after-update, watch)", s)
	}
}

// Reloader retrains and installs a model. *inference.Service implements it.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Updater runs one brain update. *brain.Updater implements it.
type Updater interface {
	Run(ctx context.Context) (brain.Report, error)
}

/*
Package feedback collects user corrections of classifier suggestions.

RecordCorrection never blocks and never fails the caller: corrections are
queued and written to the feedback store by a background goroutine, and any
store error is logged and dropped.
*/
package feedback

import (
	"time"

	"github.com/khanglvm/moodbrain/internal/mood"
	"github.com/khanglvm/moodbrain/internal/storage"
)

// Correction is a label a user chose for a piece of text.
type Correction struct {
	// Text is the labeled text as submitted.
	Text string

	// Suggestion is the label the classifier proposed, or mood.NoLabel.
	Suggestion mood.Label

	// UserLabel is the label the user picked.
	UserLabel mood.Label

	// SubmitterID identifies the user.
	SubmitterID string

	// SubmittedAt is when the correction was made.
	SubmittedAt time.Time
}

// Overrides reports whether the user disagreed with the classifier, or the
// classifier made no suggestion at all.
func (c Correction) Overrides() bool {
	return c.Suggestion == mood.NoLabel || c.Suggestion != c.UserLabel
}

// ToRecord converts the correction to a storage record with a fresh ID.
func (c Correction) ToRecord() storage.FeedbackRecord {
	rec := storage.NewFeedbackRecord(c.Text, c.UserLabel, c.Suggestion, c.SubmitterID)
	if !c.SubmittedAt.IsZero() {
		rec.SubmittedAt = c.SubmittedAt.UTC()
	}
	return rec
}

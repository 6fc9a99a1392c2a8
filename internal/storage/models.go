package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/moodbrain/internal/mood"
)

// FeedbackRecord is one user correction waiting to be folded into the corpus.
type FeedbackRecord struct {
	// ID uniquely identifies the record (UUID).
	ID string `json:"id" bson:"_id"`

	// Text is the text the user labeled.
	Text string `json:"text" bson:"text"`

	// UserLabel is the label the user chose.
	UserLabel mood.Label `json:"userLabel" bson:"userLabel"`

	// ModelSuggestion is what the classifier proposed, or mood.NoLabel if nothing was suggested.
	ModelSuggestion mood.Label `json:"modelSuggestion,omitempty" bson:"modelSuggestion,omitempty"`

	// SubmitterID identifies who submitted the correction.
	SubmitterID string `json:"submitterId" bson:"submitterId"`

	// SubmittedAt is when the correction was recorded.
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
}

// NewFeedbackRecord returns a record with a fresh ID and the current UTC time.
func NewFeedbackRecord(text string, userLabel, suggestion mood.Label, submitterID string) FeedbackRecord {
	return FeedbackRecord{
		ID:              uuid.NewString(),
		Text:            text,
		UserLabel:       userLabel,
		ModelSuggestion: suggestion,
		SubmitterID:     submitterID,
		SubmittedAt:     time.Now().UTC(),
	}
}

// PersistenceError reports a failed feedback store operation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("feedback store %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

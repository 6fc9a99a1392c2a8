package corpus

import (
	"errors"
	"strings"
	"testing"

	"github.com/khanglvm/moodbrain/internal/mood"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  I am Happy  ", "i am happy"},
		{"SAD", "sad"},
		{"\tcalm\n", "calm"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCorpus_AddRejectsDuplicates(t *testing.T) {
	c := New()
	if err := c.Add(Example{Text: "I am happy", Label: "happy"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := c.Add(Example{Text: "  i AM happy ", Label: "sad"})
	if !errors.Is(err, ErrDuplicateExample) {
		t.Fatalf("expected ErrDuplicateExample, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 example, got %d", c.Len())
	}
}

func TestCorpus_AddTrimsText(t *testing.T) {
	c := New()
	if err := c.Add(Example{Text: "  tired again  ", Label: "tired"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	ex, ok := c.Lookup("TIRED AGAIN")
	if !ok {
		t.Fatal("expected lookup by normalized text to succeed")
	}
	if ex.Text != "tired again" {
		t.Errorf("expected trimmed text, got %q", ex.Text)
	}
}

func TestCorpus_AddRejectsBlank(t *testing.T) {
	c := New()
	if err := c.Add(Example{Text: "   ", Label: "happy"}); err == nil {
		t.Error("expected error for blank text")
	}
	if err := c.Add(Example{Text: "hello", Label: mood.NoLabel}); err == nil {
		t.Error("expected error for missing label")
	}
}

func TestFromExamples_Duplicate(t *testing.T) {
	_, err := FromExamples([]Example{
		{Text: "a", Label: "happy"},
		{Text: "A", Label: "happy"},
	})
	if !errors.Is(err, ErrDuplicateExample) {
		t.Fatalf("expected ErrDuplicateExample, got %v", err)
	}
}

func TestCorpus_CloneIsIndependent(t *testing.T) {
	c, err := FromExamples([]Example{{Text: "one", Label: "calm"}})
	if err != nil {
		t.Fatal(err)
	}

	clone := c.Clone()
	if err := clone.Add(Example{Text: "two", Label: "calm"}); err != nil {
		t.Fatal(err)
	}

	if c.Len() != 1 {
		t.Errorf("original corpus changed: %d examples", c.Len())
	}
	if c.Contains("two") {
		t.Error("original corpus sees example added to clone")
	}
	if clone.Len() != 2 {
		t.Errorf("expected clone to hold 2 examples, got %d", clone.Len())
	}
}

func TestCorpus_ExamplesKeepOrder(t *testing.T) {
	c := New()
	texts := []string{"first", "second", "third"}
	for _, text := range texts {
		if err := c.Add(Example{Text: text, Label: "calm"}); err != nil {
			t.Fatal(err)
		}
	}

	for i, ex := range c.Examples() {
		if ex.Text != texts[i] {
			t.Errorf("position %d: expected %q, got %q", i, texts[i], ex.Text)
		}
	}
}

func TestCorpus_Validate(t *testing.T) {
	c, err := FromExamples([]Example{{Text: "meh", Label: "bored"}})
	if err != nil {
		t.Fatal(err)
	}

	err = c.Validate(mood.DefaultVocabulary())
	var unknown *mood.UnknownLabelError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownLabelError, got %v", err)
	}
}

func TestCorpus_LabelCounts(t *testing.T) {
	c, err := FromExamples([]Example{
		{Text: "a", Label: "happy"},
		{Text: "b", Label: "happy"},
		{Text: "c", Label: "sad"},
	})
	if err != nil {
		t.Fatal(err)
	}

	counts := c.LabelCounts()
	if counts["happy"] != 2 || counts["sad"] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestSeed(t *testing.T) {
	vocab := mood.DefaultVocabulary()
	c, err := Seed(vocab)
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if c.Len() == 0 {
		t.Fatal("seed corpus is empty")
	}
	if err := c.Validate(vocab); err != nil {
		t.Errorf("seed corpus has invalid labels: %v", err)
	}
	for _, l := range vocab.Labels() {
		if c.LabelCounts()[l] == 0 {
			t.Errorf("seed corpus has no examples for %q", l)
		}
	}
}

func TestSeed_RestrictedVocabulary(t *testing.T) {
	vocab, err := mood.NewVocabulary([]string{"happy", "sad"})
	if err != nil {
		t.Fatal(err)
	}

	c, err := Seed(vocab)
	if err != nil {
		t.Fatal(err)
	}
	for label := range c.LabelCounts() {
		if label != "happy" && label != "sad" {
			t.Errorf("seed corpus contains label outside vocabulary: %q", label)
		}
	}
}

func TestImportCSV(t *testing.T) {
	input := strings.Join([]string{
		"text,label",
		"I am thrilled,Happy",
		"i am thrilled,happy",
		"so bored,bored",
		",sad",
		"single-column",
		"\"crying, again\",sad",
	}, "\n")

	c := New()
	report, err := ImportCSV(c, strings.NewReader(input), mood.DefaultVocabulary())
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}

	if report.Added != 2 {
		t.Errorf("expected 2 added, got %d", report.Added)
	}
	if report.Duplicates != 1 {
		t.Errorf("expected 1 duplicate, got %d", report.Duplicates)
	}
	if report.Skipped != 3 {
		t.Errorf("expected 3 skipped, got %d", report.Skipped)
	}
	if ex, ok := c.Lookup("crying, again"); !ok || ex.Label != "sad" {
		t.Errorf("expected quoted row to be imported as sad, got %+v", ex)
	}
}

func TestSplit(t *testing.T) {
	examples := make([]Example, 10)
	for i := range examples {
		examples[i] = Example{Text: string(rune('a' + i)), Label: "calm"}
	}

	train, test := Split(examples, 0.7, 42)
	if len(train) != 7 || len(test) != 3 {
		t.Fatalf("expected 7/3 split, got %d/%d", len(train), len(test))
	}

	train2, test2 := Split(examples, 0.7, 42)
	for i := range train {
		if train[i] != train2[i] {
			t.Fatal("split is not deterministic for a fixed seed")
		}
	}
	for i := range test {
		if test[i] != test2[i] {
			t.Fatal("split is not deterministic for a fixed seed")
		}
	}
}

func TestSplit_Edges(t *testing.T) {
	if train, test := Split(nil, 0.8, 1); train != nil || test != nil {
		t.Error("expected nil slices for empty input")
	}

	one := []Example{{Text: "x", Label: "sad"}}
	train, test := Split(one, 0.8, 1)
	if len(train) != 1 || len(test) != 0 {
		t.Errorf("expected 1/0 split for one example, got %d/%d", len(train), len(test))
	}

	two := []Example{{Text: "x", Label: "sad"}, {Text: "y", Label: "sad"}}
	train, test = Split(two, 5, 1)
	if len(train) != 1 || len(test) != 1 {
		t.Errorf("expected 1/1 split, got %d/%d", len(train), len(test))
	}
}

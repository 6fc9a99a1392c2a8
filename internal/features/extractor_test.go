package features

import (
	"reflect"
	"testing"
)

func TestTokenize_Empty(t *testing.T) {
	e := New()

	for _, input := range []string{"", "   ", "!!! ... ???"} {
		if tokens := e.Tokenize(input); len(tokens) != 0 {
			t.Errorf("Tokenize(%q): expected no tokens, got %v", input, tokens)
		}
	}
}

func TestTokenize_LowercasesAndSplits(t *testing.T) {
	e := New()

	got := e.Tokenize("I am SO tired...today,2nite")
	want := []string{"i", "am", "so", "tire", "todai", "2nite"}

	if len(got) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(got), got)
	}
	// Only compare tokens that are not affected by stemming rules.
	for _, i := range []int{0, 1, 2} {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestTokenize_StemsVariants(t *testing.T) {
	e := New()

	tests := []struct {
		a, b string
	}{
		{"feeling", "feelings"},
		{"happy", "happiness"},
		{"running", "run"},
		{"Worried", "worry"},
	}

	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			ta := e.Tokenize(tt.a)
			tb := e.Tokenize(tt.b)
			if !reflect.DeepEqual(ta, tb) {
				t.Errorf("expected %q and %q to share a stem, got %v and %v", tt.a, tt.b, ta, tb)
			}
		})
	}
}

func TestTokenize_Deterministic(t *testing.T) {
	e1 := New()
	e2 := New()
	text := "Feeling anxious about tomorrow's exam, can't sleep"

	if !reflect.DeepEqual(e1.Tokenize(text), e2.Tokenize(text)) {
		t.Error("two extractors produced different tokens for the same text")
	}
}

func TestTokenize_Apostrophes(t *testing.T) {
	e := New()

	got := e.Tokenize("can't")
	if len(got) != 2 {
		t.Fatalf("expected apostrophe to split the word, got %v", got)
	}
	if got[1] != "t" {
		t.Errorf("expected trailing token 't', got %q", got[1])
	}
}

func TestUnique(t *testing.T) {
	e := New()

	got := e.Unique("sad sad sadness day")
	if len(got) != 2 {
		t.Errorf("expected 2 unique tokens, got %v", got)
	}
}

package splitter

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitSentences(t *testing.T) {
	got := Split("Hello world. How are you?")
	want := []string{"Hello world.", "How are you?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split: got %v, want %v", got, want)
	}
}

func TestSplitKeepsTerminatorRuns(t *testing.T) {
	got := Split("Wait... really?! Yes.")
	want := []string{"Wait...", "really?!", "Yes."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split: got %v, want %v", got, want)
	}
}

func TestSplitNoTerminator(t *testing.T) {
	got := Split("  just a  trailing   thought ")
	want := []string{"just a trailing thought"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Split: got %v, want %v", got, want)
	}
}

func TestSplitDropsShortLines(t *testing.T) {
	for _, line := range Split("a. bc! Hello there. x") {
		if utf8.RuneCountInString(strings.TrimSpace(line)) <= 2 {
			t.Errorf("short line survived: %q", line)
		}
	}
	if got := Split(" . "); got != nil {
		t.Errorf("punctuation-only input produced lines: %v", got)
	}
}

func TestSplitIsPure(t *testing.T) {
	input := "One. Two! Three?"
	first := Split(input)
	second := Split(input)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("repeated calls differ: %v vs %v", first, second)
	}
}

func TestCoalesceMergesShortSentences(t *testing.T) {
	got := Coalesce([]string{"Hello world.", "How are you?"})
	want := []string{"Hello world. How are you?"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Coalesce: got %v, want %v", got, want)
	}
}

func TestCoalesceMergesUnterminated(t *testing.T) {
	long := strings.Repeat("word ", 20) + "and it keeps going" // no terminator
	got := Coalesce([]string{long, "So it continues."})
	if len(got) != 1 {
		t.Fatalf("unterminated sentence not merged: %v", got)
	}
}

func TestCoalesceKeepsLongCompleteSentences(t *testing.T) {
	long := strings.Repeat("many words here ", 6) + "and that is the full story." // > 80 runes
	got := Coalesce([]string{long, "Next sentence."})
	if len(got) != 2 {
		t.Fatalf("complete long sentence was merged away: %v", got)
	}
	if got[0] != long {
		t.Errorf("first sentence changed: %q", got[0])
	}
}

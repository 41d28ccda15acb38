package splitter

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minLineLen is the smallest trimmed rune count a split line may have;
// shorter results are noise (stray punctuation, single letters) and are
// dropped.
const minLineLen = 2

// coalesceMinLen is the rune count below which a sentence is considered
// too short to stand alone on screen; Coalesce merges the next part
// into it.
const coalesceMinLen = 80

var sentenceRe = regexp.MustCompile(`[^.!?]*[.!?]+`)

// Split breaks text into display lines on runs of sentence-terminal
// punctuation, keeping the terminator attached to its sentence and
// collapsing internal whitespace. Input without any terminal
// punctuation comes back as a single line. Lines whose trimmed length
// is not above minLineLen are dropped. Split is a pure function.
func Split(text string) []string {
	var lines []string
	rest := text
	for {
		loc := sentenceRe.FindStringIndex(rest)
		if loc == nil {
			break
		}
		if line := normalize(rest[:loc[1]]); line != "" {
			lines = append(lines, line)
		}
		rest = rest[loc[1]:]
	}
	// trailing text with no terminator, or the whole input if there
	// was none at all
	if line := normalize(rest); line != "" {
		lines = append(lines, line)
	}
	return lines
}

func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(strings.TrimSpace(s)) <= minLineLen {
		return ""
	}
	return s
}

// Coalesce merges consecutive split lines for display: a line is joined
// onto its predecessor while the predecessor does not end with terminal
// punctuation or is shorter than coalesceMinLen runes. This keeps tiny
// dangling captions from flickering through the pacer one by one.
func Coalesce(lines []string) []string {
	var out []string
	for _, line := range lines {
		if len(out) == 0 {
			out = append(out, line)
			continue
		}
		prev := out[len(out)-1]
		if !endsWithTerminator(prev) || utf8.RuneCountInString(prev) < coalesceMinLen {
			out[len(out)-1] = prev + " " + line
		} else {
			out = append(out, line)
		}
	}
	return out
}

func endsWithTerminator(s string) bool {
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") ||
		strings.HasSuffix(s, "?") || strings.HasSuffix(s, ";") ||
		strings.HasSuffix(s, ":")
}

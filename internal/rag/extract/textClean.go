package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/smehrotra/docpod/internal/config"
)

var (
	spaceRuns   = regexp.MustCompile(`[ \t]+`)
	newlineRuns = regexp.MustCompile(`\n{3,}`)
	emptyPairs  = regexp.MustCompile(`\(\s*\)|\[\s*\]|\{\s*\}`)
)

var quoteReplacer = strings.NewReplacer(
	"‘", "'", "’", "'",
	"“", `"`, "”", `"`,
	"–", "-", "—", "-",
	" ", " ",
)

// cleanText normalizes extracted page text: typographic quotes become
// plain ones, control characters are dropped and whitespace runs collapse.
func cleanText(text string) string {
	text = quoteReplacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = emptyPairs.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	text = newlineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// readableRatio reports the share of characters that look like ordinary
// prose. Garbled text layers from scanned PDFs score low here.
func readableRatio(text string) float64 {
	if len(text) == 0 {
		return 0
	}
	total, readable := 0, 0
	for _, r := range text {
		total++
		if isReadable(r) {
			readable++
		}
	}
	return float64(readable) / float64(total)
}

func isReadable(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case unicode.IsSpace(r):
		return true
	}
	switch r {
	case '.', ',', '!', '?', ';', ':', '\'', '"', '(', ')', '-':
		return true
	}
	return false
}

// pageNeedsVision flags pages whose direct extraction came back empty,
// too short, or unreadable.
func pageNeedsVision(content string) bool {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < config.ScannedPageMinLen {
		return true
	}
	return readableRatio(trimmed) < config.MinReadableRatio
}

package chunker

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("a", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}

func TestSplitIntoChunks_KeepsSentencesTogether(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := SplitIntoChunks(text, 1000)
	if len(chunks) != 1 {
		t.Fatalf("Expected one chunk, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != text {
		t.Errorf("Chunk should rejoin sentences with single spaces, got %q", chunks[0])
	}
}

func TestSplitIntoChunks_FlushesAtBudget(t *testing.T) {
	// Each sentence is 40 chars, 10 estimated tokens.
	sentence := strings.Repeat("abcd ", 7) + "done."
	text := strings.Join([]string{sentence, sentence, sentence}, " ")

	chunks := SplitIntoChunks(text, 20)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	for _, chunk := range chunks {
		if EstimateTokens(chunk) > 21 {
			t.Errorf("Chunk over budget: %d tokens", EstimateTokens(chunk))
		}
	}
}

func TestSplitIntoChunks_HardSplitsGiantSentence(t *testing.T) {
	giant := strings.Repeat("a", 900)
	chunks := SplitIntoChunks(giant, 100)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 hard split pieces, got %d", len(chunks))
	}
	if len(chunks[0]) != 400 || len(chunks[1]) != 400 || len(chunks[2]) != 100 {
		t.Errorf("Unexpected piece sizes: %d %d %d", len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}
}

func TestSplitIntoChunks_QuestionAndExclamation(t *testing.T) {
	text := "Is this split? Yes! And this stays."
	chunks := SplitIntoChunks(text, 4)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "Is this split?" || chunks[1] != "Yes!" || chunks[2] != "And this stays." {
		t.Errorf("Unexpected sentence boundaries: %v", chunks)
	}
}

func TestSplitIntoChunks_Empty(t *testing.T) {
	if chunks := SplitIntoChunks("", 100); len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty text, got %v", chunks)
	}
	if chunks := SplitIntoChunks("   \n\t  ", 100); len(chunks) != 0 {
		t.Errorf("Expected no chunks for whitespace text, got %v", chunks)
	}
}

func TestSplitIntoChunks_DecimalNumbersDoNotSplit(t *testing.T) {
	text := "The value is 3.14 exactly. Next sentence."
	chunks := SplitIntoChunks(text, 7)
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "The value is 3.14 exactly." {
		t.Errorf("Decimal point should not end a sentence: %q", chunks[0])
	}
}

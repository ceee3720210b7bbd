package chunker

import (
	"strings"
	"unicode"

	"github.com/smehrotra/docpod/internal/config"
)

// EstimateTokens approximates the token count of a piece of text. Four
// characters per token tracks the embedding model closely enough for
// budgeting chunks.
func EstimateTokens(text string) int {
	return (len(text) + config.CharsPerTokenDivisor - 1) / config.CharsPerTokenDivisor
}

// SplitIntoChunks breaks text into chunks of at most maxTokens estimated
// tokens, keeping sentences whole where possible. A single sentence that
// exceeds the budget gets hard split on character boundaries.
func SplitIntoChunks(text string, maxTokens int) []string {
	var chunks []string
	var current []string
	currentTokens := 0

	for _, sentence := range splitSentences(text) {
		tokens := EstimateTokens(sentence)

		if currentTokens+tokens > maxTokens && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			currentTokens = 0
		}

		if tokens > maxTokens {
			chunks = append(chunks, hardSplit(sentence, maxTokens*config.CharsPerTokenDivisor)...)
			continue
		}

		current = append(current, sentence)
		currentTokens += tokens
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// splitSentences splits on whitespace that follows sentence punctuation.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}
		sentence := strings.TrimSpace(string(runes[start : i+1]))
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		start = i + 1
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

func hardSplit(text string, maxChars int) []string {
	var pieces []string
	runes := []rune(text)
	for start := 0; start < len(runes); start += maxChars {
		end := start + maxChars
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}

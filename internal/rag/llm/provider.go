package llm

import "context"

// Provider is a single-turn completion surface. The system instruction may
// be empty.
type Provider interface {
	Complete(ctx context.Context, systemInstruction string, userPrompt string) (string, error)
}

// VisionBackend reads text off a rendered document page when the text
// layer cannot be parsed.
type VisionBackend interface {
	ExtractPageText(ctx context.Context, pagePDF []byte, pageNumber int) (string, error)
}

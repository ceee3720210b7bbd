package gemini

import (
	"context"
	"errors"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/internal/rag/llm"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

const visionPrompt = "Extract all readable text from this document page. " +
	"Return only the text content, preserving the reading order. " +
	"If the page contains no readable text, return an empty response."

type visionClient struct {
	client    *genai.Client
	modelName string
}

var visionLogger *logger_i.Logger
var visionInstance *visionClient
var visionOnce sync.Once

// GetVisionClient returns the page-image text reader used when a PDF has
// no extractable text layer.
func GetVisionClient(ctx context.Context, modelName string, apikey string) llm.VisionBackend {
	visionOnce.Do(func() {
		visionLogger = logger_i.NewLogger("llm_gemini_vision")
		c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
		if err != nil {
			visionLogger.Error("Error creating Gemini vision client:", "error", err)
			return
		}
		visionInstance = &visionClient{client: c, modelName: modelName}
		visionLogger.Info("Gemini vision client created")
	})

	if visionInstance == nil {
		return nil
	}
	return visionInstance
}

// ExtractPageText sends a single-page PDF to the model and returns the
// text it reads off the page.
func (c *visionClient) ExtractPageText(ctx context.Context, pagePDF []byte, pageNumber int) (string, error) {
	log := visionLogger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "page", pageNumber)

	callCtx, cancel := context.WithTimeout(ctx, config.VisionPageTimeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: "application/pdf", Data: pagePDF}},
				{Text: visionPrompt},
			},
		},
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(callCtx, c.modelName, contents, nil)
	metrics.CaptureExecutionMetrics("gemini_vision", time.Since(start))
	if err != nil {
		log.Error("Vision extraction failed", "error", err)
		return "", err
	}
	if result == nil {
		log.Error("Nil vision response")
		return "", errors.New("empty vision response")
	}
	return result.Text(), nil
}

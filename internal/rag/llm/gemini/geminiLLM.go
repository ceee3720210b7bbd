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

type llmClient struct {
	client    *genai.Client
	modelName string
}

var logger *logger_i.Logger
var geminiClient *llmClient
var once sync.Once

func GetGeminiClient(ctx context.Context, modelName string, apikey string) llm.Provider {
	once.Do(func() {
		logger = logger_i.NewLogger("llm_gemini")
		newGeminiClient(ctx, modelName, apikey)
	})

	if geminiClient == nil {
		return nil
	}
	return &llmClient{client: geminiClient.client, modelName: geminiClient.modelName}
}

func newGeminiClient(ctx context.Context, modelName string, apikey string) {

	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		logger.Error("Error creating Gemini client:", "error", err)
	}
	if c != nil {
		geminiClient = &llmClient{client: c, modelName: modelName}
		logger.Debug("Gemini ", modelName, " client created")
		logger.Info("Gemini client created")
		go closeClient(ctx, geminiClient)
	}

}

func (c *llmClient) Complete(ctx context.Context, systemInstruction string, userPrompt string) (string, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY))

	temperature := config.ModelTemperature
	contentConfig := &genai.GenerateContentConfig{
		Temperature: &temperature,
	}
	if systemInstruction != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: systemInstruction},
			},
		}
	}

	start := time.Now()
	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(userPrompt),
		contentConfig,
	)
	metrics.CaptureExecutionMetrics("gemini_generate", time.Since(start))
	if err != nil {
		log.Error("Error generating content", "error", err)
		return "", err
	}

	answer := result.Text()
	if answer == "" {
		log.Error("Empty completion from Gemini")
		return "", errors.New("empty completion")
	}
	return answer, nil
}

func closeClient(ctx context.Context, llm *llmClient) {
	<-ctx.Done()
	logger.Info("Closing Gemini client")
	llm.client = nil
	llm.modelName = ""
}

package tts

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/smehrotra/docpod/internal/config"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/metrics"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

// Synthesizer renders one script segment to audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speaker docModel.Speaker) ([]byte, error)
}

var (
	logger   *logger_i.Logger
	once     sync.Once
	instance *openAIClient
)

type openAIClient struct {
	client openai.Client
}

func GetOpenAIClient(ctx context.Context, apikey string) Synthesizer {
	once.Do(func() {
		logger = logger_i.NewLogger("openai_tts")
		if apikey == "" {
			logger.Error("OpenAI API key is not configured")
			return
		}
		instance = &openAIClient{
			client: openai.NewClient(option.WithAPIKey(apikey)),
		}
		logger.Info("OpenAI TTS client created")
	})

	if instance == nil {
		return nil
	}
	return instance
}

// voiceFor maps hosts onto fixed voices so they stay recognizable across
// episodes.
func voiceFor(speaker docModel.Speaker) openai.AudioSpeechNewParamsVoice {
	if speaker == docModel.SpeakerJordan {
		return openai.AudioSpeechNewParamsVoiceEcho
	}
	return openai.AudioSpeechNewParamsVoiceAlloy
}

func (c *openAIClient) Synthesize(ctx context.Context, text string, speaker docModel.Speaker) ([]byte, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "speaker", speaker)

	start := time.Now()
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelTTS1,
		Voice:          voiceFor(speaker),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(config.TTSSpeed),
	})
	metrics.CaptureExecutionMetrics("openai_tts", time.Since(start))
	if err != nil {
		log.Error("Speech synthesis failed", "error", err)
		return nil, fmt.Errorf("synthesizing segment: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("Reading synthesized audio failed", "error", err)
		return nil, err
	}
	return audio, nil
}

package api

import (
	"errors"
	"fmt"
	"time"
)

type Action string

const (
	ActionAnalyzePDF         Action = "analyze_pdf"
	ActionAnalyzePDFEnhanced Action = "analyze_pdf_enhanced"
	ActionChat               Action = "chat"
	ActionCheckEmbeddings    Action = "check_embeddings"
	ActionCreateEmbeddings   Action = "create_embeddings"
	ActionGeneratePodcast    Action = "generate_podcast"
	ActionCheckPodcastStatus Action = "check_podcast_status"
)

// Envelope is the raw action-dispatched request body. Each action maps to
// one typed command below; the envelope is parsed once and converted before
// any work happens.
type Envelope struct {
	Action           Action `json:"action"`
	DocumentID       string `json:"documentId"`
	SourceURL        string `json:"sourceUrl,omitempty"`
	Name             string `json:"name,omitempty"`
	Message          string `json:"message,omitempty"`
	PriorContextText string `json:"priorContextText,omitempty"`
	ForceRegenerate  bool   `json:"forceRegenerate,omitempty"`
}

type Command interface {
	Validate() error
}

type AnalyzeCommand struct {
	DocumentID string
	SourceURL  string
	Name       string
}

type ChatCommand struct {
	DocumentID       string
	Message          string
	PriorContextText string
}

type CheckEmbeddingsCommand struct {
	DocumentID string
}

type CreateEmbeddingsCommand struct {
	DocumentID string
	SourceURL  string
	Name       string
}

type GeneratePodcastCommand struct {
	DocumentID      string
	Name            string
	ForceRegenerate bool
}

type CheckPodcastStatusCommand struct {
	DocumentID string
}

func (c AnalyzeCommand) Validate() error {
	return requireFields(map[string]string{
		"documentId": c.DocumentID,
		"sourceUrl":  c.SourceURL,
		"name":       c.Name,
	})
}

func (c ChatCommand) Validate() error {
	return requireFields(map[string]string{
		"documentId": c.DocumentID,
		"message":    c.Message,
	})
}

func (c CheckEmbeddingsCommand) Validate() error {
	return requireFields(map[string]string{"documentId": c.DocumentID})
}

func (c CreateEmbeddingsCommand) Validate() error {
	return requireFields(map[string]string{
		"documentId": c.DocumentID,
		"sourceUrl":  c.SourceURL,
		"name":       c.Name,
	})
}

func (c GeneratePodcastCommand) Validate() error {
	return requireFields(map[string]string{
		"documentId": c.DocumentID,
		"name":       c.Name,
	})
}

func (c CheckPodcastStatusCommand) Validate() error {
	return requireFields(map[string]string{"documentId": c.DocumentID})
}

var ErrUnknownAction = errors.New("unknown action")

// ToCommand maps the envelope onto its typed command. Unknown actions are
// rejected before any handler runs.
func (e Envelope) ToCommand() (Command, error) {
	switch e.Action {
	case ActionAnalyzePDF, ActionAnalyzePDFEnhanced:
		return AnalyzeCommand{DocumentID: e.DocumentID, SourceURL: e.SourceURL, Name: e.Name}, nil
	case ActionChat:
		return ChatCommand{DocumentID: e.DocumentID, Message: e.Message, PriorContextText: e.PriorContextText}, nil
	case ActionCheckEmbeddings:
		return CheckEmbeddingsCommand{DocumentID: e.DocumentID}, nil
	case ActionCreateEmbeddings:
		return CreateEmbeddingsCommand{DocumentID: e.DocumentID, SourceURL: e.SourceURL, Name: e.Name}, nil
	case ActionGeneratePodcast:
		return GeneratePodcastCommand{DocumentID: e.DocumentID, Name: e.Name, ForceRegenerate: e.ForceRegenerate}, nil
	case ActionCheckPodcastStatus:
		return CheckPodcastStatusCommand{DocumentID: e.DocumentID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, e.Action)
	}
}

func requireFields(fields map[string]string) error {
	for name, val := range fields {
		if val == "" {
			return fmt.Errorf("missing required field: %s", name)
		}
	}
	return nil
}

// responses---------------------

type AnalyzeResponse struct {
	Summary          string `json:"summary"`
	Cached           bool   `json:"cached"`
	Enhanced         bool   `json:"enhanced"`
	ProcessingMethod string `json:"processing_method,omitempty"`
}

type ChatResponse struct {
	Message        string `json:"message"`
	RelevantChunks int    `json:"relevantChunks"`
}

type CheckEmbeddingsResponse struct {
	Exists      bool   `json:"exists"`
	ChunksCount int    `json:"chunksCount,omitempty"`
	Method      string `json:"method,omitempty"`
}

type EmbeddingsExistResponse struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	ChunksCount int    `json:"chunksCount"`
}

type PodcastResponse struct {
	Script   string `json:"script"`
	AudioURL string `json:"audioUrl"`
	Status   string `json:"status"`
}

type PodcastStatusResponse struct {
	Script      string     `json:"script,omitempty"`
	AudioURL    string     `json:"audioUrl,omitempty"`
	Status      string     `json:"status"`
	Error       string     `json:"error,omitempty"`
	GeneratedAt *time.Time `json:"generatedAt,omitempty"`
}

type ErrorResponse struct {
	Error           string `json:"error"`
	NeedsEmbeddings bool   `json:"needsEmbeddings,omitempty"`
}

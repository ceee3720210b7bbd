package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/smehrotra/docpod/internal/api"
	"github.com/smehrotra/docpod/internal/data/tieredStore"
	"github.com/smehrotra/docpod/internal/domain/docModel"
	"github.com/smehrotra/docpod/internal/pipeline"
	"github.com/smehrotra/docpod/internal/podcast"
	"github.com/smehrotra/docpod/internal/rag"
	"github.com/smehrotra/docpod/internal/rag/extract"
	"github.com/smehrotra/docpod/pkg/logger_i"
)

var (
	handlerInstance *DocumentsHandler //private singleton
	once            sync.Once
	logDH           *logger_i.Logger
)

type DocumentsHandler struct {
	analyzer *pipeline.Analyzer
	chat     rag.Service
	podcasts *podcast.Service
	tiered   *tieredStore.Store
}

func InitDocumentsHandler(analyzer *pipeline.Analyzer, chat rag.Service, podcasts *podcast.Service, tiered *tieredStore.Store) {
	once.Do(func() {
		handlerInstance = &DocumentsHandler{
			analyzer: analyzer,
			chat:     chat,
			podcasts: podcasts,
			tiered:   tiered,
		}
		logDH = logger_i.NewLogger("DocumentsHandler")
		logDH.Info("Starting documents handler")
	})
}

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// PostDocumentsHandler godoc
// @Summary      Run a document operation
// @Description  Single action-dispatched endpoint. The action field selects analysis, chat, embedding checks, embedding creation, or podcast generation for the referenced document.
// @Tags         Documents
// @Accept       json
// @Produce      json
// @Param        request  body      api.Envelope  true  "Action and its parameters"
// @Success      200      {object}  api.AnalyzeResponse  "Operation result, shape depends on action"
// @Failure      400      {object}  api.ErrorResponse    "Unknown action or missing fields"
// @Failure      409      {object}  api.ErrorResponse    "Document is already being processed"
// @Failure      500      {object}  api.ErrorResponse    "Pipeline failure"
// @Router       /documents [post]
func PostDocumentsHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(request.Context()) {
		logDH.Warn("Invalid Context by request ", request.RemoteAddr)
		return
	}

	var envelope api.Envelope
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logDH.Error("Couldn't close the documents handler reader :", err)
		}
	}(request.Body)

	if err := json.NewDecoder(request.Body).Decode(&envelope); err != nil {
		logDH.Warn("Bad Documents Request: ", "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, "Bad Request")
		return
	}

	command, err := envelope.ToCommand()
	if err != nil {
		logDH.Warn("Unknown action: ", "action:", envelope.Action)
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := command.Validate(); err != nil {
		logDH.Warn("Invalid command: ", "action:", envelope.Action, "error:", err)
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	handlerInstance.dispatch(w, request, command)
}

func (h *DocumentsHandler) dispatch(w http.ResponseWriter, r *http.Request, command api.Command) {
	switch cmd := command.(type) {
	case api.AnalyzeCommand:
		h.analyze(w, r, cmd)
	case api.ChatCommand:
		h.chatMessage(w, r, cmd)
	case api.CheckEmbeddingsCommand:
		h.checkEmbeddings(w, r, cmd)
	case api.CreateEmbeddingsCommand:
		h.createEmbeddings(w, r, cmd)
	case api.GeneratePodcastCommand:
		h.generatePodcast(w, r, cmd)
	case api.CheckPodcastStatusCommand:
		h.podcastStatus(w, r, cmd)
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "unsupported command")
	}
}

func (h *DocumentsHandler) analyze(w http.ResponseWriter, r *http.Request, cmd api.AnalyzeCommand) {
	doc := docModel.Document{Id: cmd.DocumentID, SourceURL: cmd.SourceURL, Name: cmd.Name}

	result, err := h.analyzer.Analyze(r.Context(), doc)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyProcessing) {
			WriteErrorResponse(w, http.StatusConflict, err.Error())
			return
		}
		logDH.Error("Analysis failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Analysis failed")
		return
	}

	// Both analyze actions run the enhanced pipeline, so the response
	// always reports it.
	writeJsonResponse(w, http.StatusOK, api.AnalyzeResponse{
		Summary:          result.Summary,
		Cached:           result.Cached,
		Enhanced:         true,
		ProcessingMethod: result.ProcessingMethod,
	})
}

func (h *DocumentsHandler) chatMessage(w http.ResponseWriter, r *http.Request, cmd api.ChatCommand) {
	result, err := h.chat.Chat(r.Context(), cmd.DocumentID, cmd.Message, cmd.PriorContextText)
	if err != nil {
		if errors.Is(err, rag.ErrNeedsEmbeddings) {
			writeJsonResponse(w, http.StatusBadRequest, api.ErrorResponse{
				Error:           "Document has no embeddings. Run create_embeddings first.",
				NeedsEmbeddings: true,
			})
			return
		}
		logDH.Error("Chat failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Chat failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.ChatResponse{
		Message:        result.Answer,
		RelevantChunks: result.RelevantChunks,
	})
}

func (h *DocumentsHandler) checkEmbeddings(w http.ResponseWriter, r *http.Request, cmd api.CheckEmbeddingsCommand) {
	exists, chunksCount, method, err := h.tiered.Check(r.Context(), cmd.DocumentID)
	if err != nil {
		logDH.Error("Embedding check failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Embedding check failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.CheckEmbeddingsResponse{
		Exists:      exists,
		ChunksCount: chunksCount,
		Method:      method,
	})
}

func (h *DocumentsHandler) createEmbeddings(w http.ResponseWriter, r *http.Request, cmd api.CreateEmbeddingsCommand) {
	exists, chunksCount, _, err := h.tiered.Check(r.Context(), cmd.DocumentID)
	if err == nil && exists {
		writeJsonResponse(w, http.StatusOK, api.EmbeddingsExistResponse{
			Status:      "exists",
			Message:     "Embeddings already exist",
			ChunksCount: chunksCount,
		})
		return
	}

	doc := docModel.Document{Id: cmd.DocumentID, SourceURL: cmd.SourceURL, Name: cmd.Name}
	created, err := h.analyzer.CreateEmbeddings(r.Context(), doc)
	if err != nil {
		if errors.Is(err, pipeline.ErrAlreadyProcessing) {
			WriteErrorResponse(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, extract.ErrSizeLimit) {
			WriteErrorResponse(w, http.StatusRequestEntityTooLarge, err.Error())
			return
		}
		if errors.Is(err, extract.ErrFetch) {
			WriteErrorResponse(w, http.StatusBadGateway, err.Error())
			return
		}
		logDH.Error("Embedding creation failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Embedding creation failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.EmbeddingsExistResponse{
		Status:      "created",
		Message:     "Embeddings created",
		ChunksCount: created,
	})
}

func (h *DocumentsHandler) generatePodcast(w http.ResponseWriter, r *http.Request, cmd api.GeneratePodcastCommand) {
	result, err := h.podcasts.Generate(r.Context(), cmd.DocumentID, cmd.Name, cmd.ForceRegenerate)
	if err != nil {
		if errors.Is(err, podcast.ErrAlreadyProcessing) {
			WriteErrorResponse(w, http.StatusConflict, err.Error())
			return
		}
		if errors.Is(err, podcast.ErrNoContent) {
			WriteErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		logDH.Error("Podcast generation failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Podcast generation failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.PodcastResponse{
		Script:   result.Script,
		AudioURL: result.AudioURL,
		Status:   string(result.Status),
	})
}

func (h *DocumentsHandler) podcastStatus(w http.ResponseWriter, r *http.Request, cmd api.CheckPodcastStatusCommand) {
	result, err := h.podcasts.Status(r.Context(), cmd.DocumentID)
	if err != nil {
		logDH.Error("Podcast status lookup failed", "documentId", cmd.DocumentID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Podcast status lookup failed")
		return
	}

	writeJsonResponse(w, http.StatusOK, api.PodcastStatusResponse{
		Script:      result.Script,
		AudioURL:    result.AudioURL,
		Status:      string(result.Status),
		Error:       result.Error,
		GeneratedAt: result.GeneratedAt,
	})
}

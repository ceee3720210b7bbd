package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/smehrotra/docpod/internal/api"
	"github.com/smehrotra/docpod/internal/config"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logDH.Error("Error encoding response: %v", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, message string) {
	writeJsonResponse(w, httpCode, api.ErrorResponse{Error: message})
}

func validateContext(ctx context.Context) bool {
	logDH.With("traceId:", ctx.Value(config.TRACE_ID_KEY))
	if ctx.Err() != nil {
		logDH.Warn("context error", ctx.Err())
		return false
	}

	select {
	case <-ctx.Done():
		logDH.Warn("context cancelled")
		return false
	default:
		return true

	}
}

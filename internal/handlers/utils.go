package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/akolanti/DocuMind/internal/adapter"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

const maxJSONBody = 1 << 20

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but can't send a clean status code now
		logRH.Error("Error encoding response", "err", err)
	}
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, error string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, error, httpCode))
}

// validateContext drops requests whose client already went away.
func validateContext(w http.ResponseWriter, ctx context.Context) bool {
	if ctx.Err() != nil {
		logRH.Warn("context error", "traceId", config.TraceId(ctx), "err", ctx.Err())
		return false
	}
	if handlerInstance == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Service is starting")
		return false
	}
	return true
}

func requestLogger(r *http.Request) *logger_i.Logger {
	return logRH.With("traceId", config.TraceId(r.Context()), "path", r.URL.Path)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			logRH.Error("Couldn't close the request body", "err", err)
		}
	}(r.Body)
	return json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(dst)
}

// writeStoreError maps repository errors onto the error envelope.
func writeStoreError(w http.ResponseWriter, err error, id string, notFound string) {
	switch {
	case commonModels.IsNotFound(err):
		WriteErrorResponse(w, http.StatusNotFound, id, notFound)
	case commonModels.IsValidation(err):
		WriteErrorResponse(w, http.StatusBadRequest, id, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		WriteErrorResponse(w, http.StatusGatewayTimeout, id, "Request timed out")
	default:
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Internal error")
	}
}

func allowedExtension(name string, allowed []string) bool {
	return slices.Contains(allowed, strings.ToLower(filepath.Ext(name)))
}

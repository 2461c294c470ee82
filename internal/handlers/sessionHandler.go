package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/adapter"
	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/api"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
)

// CreateSessionHandler godoc
// @Summary      Create a chat session
// @Description  Creates a session, optionally attaching documents the owner already uploaded.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        request  body      api.CreateSessionRequest  true  "Owner, title and document ids"
// @Success      201      {object}  api.SessionResponse
// @Failure      400      {object}  api.JobResponse  "Bad request or unknown document"
// @Router       /sessions [post]
func CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		return
	}
	h := handlerInstance
	ctx := r.Context()
	log := requestLogger(r)

	var req api.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Bad Request")
		return
	}
	req.OwnerId = strings.TrimSpace(req.OwnerId)
	if req.OwnerId == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "", "owner_id is required")
		return
	}
	req.DocumentIds = uniqueIds(req.DocumentIds)

	docs, err := h.documents.GetSelected(ctx, req.DocumentIds, req.OwnerId)
	if err != nil {
		writeStoreError(w, err, "", "Document not found")
		return
	}
	if len(docs) != len(req.DocumentIds) {
		WriteErrorResponse(w, http.StatusBadRequest, "", "Unknown document for this owner")
		return
	}

	session := chatModel.ChatSession{
		Id:          utils.GetNewUUID(),
		OwnerId:     req.OwnerId,
		Title:       req.Title,
		DocumentIds: req.DocumentIds,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.sessions.CreateSession(ctx, session); err != nil {
		log.Error("Could not create session", "err", err)
		writeStoreError(w, err, session.Id, "Chat session not found")
		return
	}
	log.Info("Session created", "sessionId", session.Id, "documents", len(docs))
	writeJsonResponse(w, http.StatusCreated, adapter.ToSessionResponse(session, docs))
}

// GetSessionHandler godoc
// @Summary      Get a chat session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.SessionResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id} [get]
func GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		return
	}
	h := handlerInstance
	id := utils.GetChiURLParam(r, "id")

	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, id, "Chat session not found")
		return
	}
	docs, err := h.documents.GetSelected(r.Context(), session.DocumentIds, session.OwnerId)
	if err != nil {
		writeStoreError(w, err, id, "Document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToSessionResponse(session, docs))
}

// GetMessagesHandler godoc
// @Summary      List the messages of a chat session
// @Tags         Sessions
// @Produce      json
// @Param        id   path      string  true  "Session ID"
// @Success      200  {object}  api.MessagesResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /sessions/{id}/messages [get]
func GetMessagesHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		return
	}
	h := handlerInstance
	id := utils.GetChiURLParam(r, "id")

	if _, err := h.sessions.GetSession(r.Context(), id); err != nil {
		writeStoreError(w, err, id, "Chat session not found")
		return
	}
	messages, err := h.sessions.GetMessages(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, id, "Chat session not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToMessagesResponse(id, messages))
}

// GetDocumentHandler godoc
// @Summary      Get document status
// @Description  Clients poll this until the status is Ready or Error.
// @Tags         Ingestion
// @Produce      json
// @Param        id   path      string  true  "Document ID"
// @Success      200  {object}  api.DocumentResponse
// @Failure      404  {object}  api.JobResponse
// @Router       /documents/{id} [get]
func GetDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	doc, err := handlerInstance.documents.GetById(r.Context(), id)
	if err != nil {
		writeStoreError(w, err, id, "Document not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponse(doc))
}

func uniqueIds(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akolanti/DocuMind/internal/adapter"
	"github.com/akolanti/DocuMind/internal/adapter/utils"
	"github.com/akolanti/DocuMind/internal/api"
	"github.com/akolanti/DocuMind/internal/config"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
	"github.com/akolanti/DocuMind/pkg/logger_i"
)

var logRH = logger_i.NewLogger("RequestHandler")

// multipart headers and the form fields around the file
const uploadOverhead = 1 << 20

const maxIngestDelay = 7 * 24 * time.Hour

// HealthHandler godoc
// @Summary      Liveness and queue depth
// @Tags         Health
// @Produce      json
// @Success      200  {object}  api.HealthResponse
// @Failure      503  {object}  api.HealthResponse
// @Router       /health [get]
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if handlerInstance == nil {
		writeJsonResponse(w, http.StatusServiceUnavailable, api.HealthResponse{Status: "starting"})
		return
	}
	res := api.HealthResponse{Status: "ok", Queues: map[string]int64{}}
	for _, name := range []string{config.QueueProcessing, config.QueueDefault} {
		depth, err := handlerInstance.service.Queue.Depth(r.Context(), name)
		if err != nil {
			requestLogger(r).Warn("queue depth unavailable", "queue", name, "err", err)
			res.Status = "degraded"
			continue
		}
		res.Queues[name] = depth
	}
	if res.Status != "ok" {
		writeJsonResponse(w, http.StatusServiceUnavailable, res)
		return
	}
	writeJsonResponse(w, http.StatusOK, res)
}

// ChatHandler godoc
// @Summary      Ask a question asynchronously
// @Description  Queues a question against the session's documents and returns a job ID to track status.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest      true  "Session, question and optional document ids"
// @Success      202      {object}  api.InitJobResponse  "Job successfully created"
// @Failure      400      {object}  api.JobResponse      "Invalid request data"
// @Failure      404      {object}  api.JobResponse      "Session not found"
// @Router       /chat [post]
func ChatHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(w, request.Context()) {
		logRH.Warn("Invalid Context by request", "remote", request.RemoteAddr)
		return
	}
	log := requestLogger(request)

	var requestData api.ChatRequest
	if err := decodeJSON(request, &requestData); err != nil || !validChatRequest(requestData) {
		log.Warn("Bad Chat Request", "error", err, "sessionId", requestData.SessionId)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionId, "Bad Request")
		return
	}
	if _, err := handlerInstance.sessions.GetSession(request.Context(), requestData.SessionId); err != nil {
		writeStoreError(w, err, requestData.SessionId, "Chat session not found")
		return
	}

	newJob, err := CreateQueryJob(request.Context(), requestData.SessionId, requestData.Message, requestData.DocumentIds)
	if err != nil {
		log.Error("Could not queue chat job", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, requestData.SessionId, "Could not queue the request")
		return
	}
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

func validChatRequest(req api.ChatRequest) bool {
	return strings.TrimSpace(req.Message) != "" && req.SessionId != ""
}

// AskHandler godoc
// @Summary      Ask a question and wait for the answer
// @Description  Runs classification, retrieval and generation synchronously. A failed answer still returns 200 with success=false.
// @Tags         Messaging
// @Accept       json
// @Produce      json
// @Param        request  body      api.ChatRequest  true  "Session, question and optional document ids"
// @Success      200      {object}  api.AskResponse
// @Failure      400      {object}  api.JobResponse
// @Router       /ask [post]
func AskHandler(w http.ResponseWriter, request *http.Request) {
	if !validateContext(w, request.Context()) {
		return
	}
	var requestData api.ChatRequest
	if err := decodeJSON(request, &requestData); err != nil || !validChatRequest(requestData) {
		requestLogger(request).Warn("Bad Ask Request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, requestData.SessionId, "Bad Request")
		return
	}

	result := handlerInstance.rag.AskQuestion(request.Context(), chatModel.AskRequest{
		SessionId:   requestData.SessionId,
		Question:    requestData.Message,
		DocumentIds: requestData.DocumentIds,
	})
	writeJsonResponse(w, http.StatusOK, adapter.ToAskResponse(result))
}

// GetStatusHandler godoc
// @Summary      Get job status
// @Description  Retrieves the current status of a specific job using its ID.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Job ID "
// @Success      200  {object}  api.JobResponse   "Successful retrieval of job status"
// @Failure      404  {object}  api.JobResponse   "Job not found (returns Error object within JobResponse)"
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := GetJobStatus(r.Context(), idString)

	requestLogger(r).Debug("Get Status Request", "jobId", idString, "found", isFound)
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Job not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// UploadDocumentHandler handles the uploading of documents into a chat session.
// @Summary      Upload a document into a session
// @Description  Receives a file via multipart/form-data, stores it, records it as Pending and queues ingestion.
// @Tags         Ingestion
// @Accept       multipart/form-data
// @Produce      json
// @Param        id             path      string  true   "Session ID"
// @Param        document       formData  file    true   "The PDF, DOCX, ODT, RTF or TXT file to upload"
// @Param        delay_seconds  formData  int     false  "Start ingestion after this many seconds, at most 604800"
// @Success      202  {object}  api.UploadResponse "Accepted"
// @Failure      400  {object}  api.JobResponse "Bad Request - missing file, wrong type or file too large"
// @Failure      404  {object}  api.JobResponse "Session not found"
// @Failure      500  {object}  api.JobResponse "Storage error"
// @Router       /sessions/{id}/documents [post]
func UploadDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(w, r.Context()) {
		logRH.Warn("Invalid Context by request", "remote", r.RemoteAddr)
		return
	}
	h := handlerInstance
	ctx := r.Context()
	log := requestLogger(r)
	sessionId := utils.GetChiURLParam(r, "id")

	session, err := h.sessions.GetSession(ctx, sessionId)
	if err != nil {
		writeStoreError(w, err, sessionId, "Chat session not found")
		return
	}

	maxSize := h.ingestion.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+uploadOverhead)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteErrorResponse(w, http.StatusBadRequest, sessionId, commonModels.ErrFileTooLarge.Error())
			return
		}
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "File too large or bad request")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	delay, err := parseDelay(r.FormValue("delay_seconds"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "delay_seconds must be an integer between 0 and 604800")
		return
	}

	fileReader, fileMetadata, err := r.FormFile("document")
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, "Could not retrieve file")
		return
	}
	defer fileReader.Close()

	switch {
	case fileMetadata.Size == 0:
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, commonModels.ErrFileMissing.Error())
		return
	case !allowedExtension(fileMetadata.Filename, h.ingestion.AllowedExtensions):
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, commonModels.ErrUnsupportedType.Error())
		return
	case fileMetadata.Size > maxSize:
		WriteErrorResponse(w, http.StatusBadRequest, sessionId, commonModels.ErrFileTooLarge.Error())
		return
	}

	path, size, err := h.files.Upload(ctx, fileReader, fileMetadata.Filename, session.OwnerId)
	if err != nil {
		log.Error("Storage upload failed", "err", err)
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Storage error")
		return
	}

	now := time.Now().UTC()
	doc := commonModels.Document{
		Id:          utils.GetNewUUID(),
		OwnerId:     session.OwnerId,
		FileName:    fileMetadata.Filename,
		StoragePath: path,
		Size:        size,
		Status:      commonModels.StatusPending,
		CreatedAt:   now,
	}
	if delay > 0 {
		doc.NotBefore = now.Add(delay)
	}
	if err := h.documents.Create(ctx, doc); err != nil {
		log.Error("Could not record document", "err", err)
		if delErr := h.files.Delete(ctx, path); delErr != nil {
			log.Warn("Could not remove orphaned upload", "path", path, "err", delErr)
		}
		WriteErrorResponse(w, http.StatusInternalServerError, sessionId, "Storage error")
		return
	}
	if err := h.sessions.AttachDocument(ctx, sessionId, doc.Id); err != nil {
		log.Error("Could not attach document to session", "documentId", doc.Id, "err", err)
		writeStoreError(w, err, sessionId, "Chat session not found")
		return
	}

	newJob, err := CreateIngestJob(ctx, doc.Id, sessionId, delay)
	if err != nil {
		// the document stays Pending and the recurring cleanup queues it again
		log.Error("Could not queue ingestion", "documentId", doc.Id, "err", err)
		newJob.Id = ""
	}
	log.Info("Document accepted", "documentId", doc.Id, "size", size, "delay", delay)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToUploadResponse(doc, newJob.Id))
}

func parseDelay(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds < 0 || seconds > int64(maxIngestDelay/time.Second) {
		return 0, errors.New("invalid delay")
	}
	return time.Duration(seconds) * time.Second, nil
}

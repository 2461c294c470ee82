package adapter

import (
	"fmt"

	"github.com/akolanti/DocuMind/internal/api"
	"github.com/akolanti/DocuMind/internal/domain/chatModel"
	"github.com/akolanti/DocuMind/internal/domain/commonModels"
)

func ToDocumentResponse(doc commonModels.Document) api.DocumentResponse {
	return api.DocumentResponse{
		Id:                doc.Id,
		OwnerId:           doc.OwnerId,
		FileName:          doc.FileName,
		Size:              doc.Size,
		Status:            string(doc.Status),
		ErrorMessage:      doc.ErrorMessage,
		ChunkCount:        doc.ChunkCount,
		IndexedChunkCount: doc.IndexedChunkCount,
		CreatedAt:         doc.CreatedAt,
		UpdatedAt:         doc.UpdatedAt,
	}
}

func ToUploadResponse(doc commonModels.Document, jobId string) api.UploadResponse {
	res := api.UploadResponse{
		DocumentId:  doc.Id,
		JobId:       jobId,
		Status:      string(doc.Status),
		DocumentURL: fmt.Sprintf("documents/%s", doc.Id),
	}
	if jobId != "" {
		res.StatusURL = statusURL(jobId)
	}
	return res
}

// ToSessionResponse lists docs in the order given; the session's own id list is not consulted.
func ToSessionResponse(session chatModel.ChatSession, docs []commonModels.Document) api.SessionResponse {
	out := make([]api.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, ToDocumentResponse(d))
	}
	return api.SessionResponse{
		Id:        session.Id,
		OwnerId:   session.OwnerId,
		Title:     session.Title,
		Documents: out,
		CreatedAt: session.CreatedAt,
	}
}

func ToMessagesResponse(sessionId string, messages []chatModel.ChatMessage) api.MessagesResponse {
	out := make([]api.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, api.MessageResponse{
			IsFromUser: m.IsFromUser,
			Content:    m.Content,
			Timestamp:  m.Timestamp,
		})
	}
	return api.MessagesResponse{SessionId: sessionId, Messages: out}
}

func ToAskResponse(result chatModel.AnswerResult) api.AskResponse {
	return api.AskResponse{
		Success:   result.IsSuccess,
		Answer:    result.Answer,
		Intent:    string(result.Intent),
		ElapsedMs: result.ElapsedMs,
		Message:   result.Message,
	}
}

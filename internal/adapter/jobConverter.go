package adapter

import (
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/internal/api"
	"github.com/akolanti/DocuMind/internal/domain/jobModel"
)

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: statusURL(id),
	}
}

func statusURL(id string) string {
	return fmt.Sprintf("status/%s", id)
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {

	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
			Retry:   job.Error.Retry,
		}
	}

	result := api.Result{
		Status:              string(job.Status),
		Step:                string(job.CurrentStep),
		RAGExternalResponse: ToRAGExternalStatus(job.JobPayload),
	}

	return api.JobResponse{
		Id:         job.Id,
		Type:       string(job.JobType),
		SessionId:  job.SessionId,
		DocumentId: job.DocumentId,
		StartTime:  job.CreatedTime,
		EndTime:    job.EndTime,
		Error:      errorPtr,
		Result:     result,
	}
}

func ToRAGExternalStatus(ragData jobModel.JobPayload) *api.RAGResponse {
	if ragData.Answer == "" {
		return nil
	}

	return &api.RAGResponse{
		Question:  ragData.Question,
		Answer:    ragData.Answer,
		Intent:    ragData.Intent,
		ElapsedMs: ragData.ElapsedMs,
	}
}

func BadRequest(id string, error string, code int) api.JobResponse {
	return api.JobResponse{
		Id:        id,
		StartTime: time.Time{},
		EndTime:   time.Time{},
		Result: api.Result{
			Status: string(api.JobStatusError),
		},
		Error: &api.JobOutgoingError{
			Code:    code,
			Message: error,
			Retry:   false,
		},
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/audioscribe/backend/internal/job"
)

type JobHandler struct {
	queue *job.JobQueue
}

func NewJobHandler(queue *job.JobQueue) *JobHandler {
	return &JobHandler{queue: queue}
}

// jobResponse flattens a job's opaque params and result into the fields
// the admin dashboard actually renders.
type jobResponse struct {
	*job.Job
	TranscriptID  string                `json:"transcript_id,omitempty"`
	Engine        string                `json:"engine,omitempty"`
	Transcription *job.TranscribeResult `json:"transcription,omitempty"`
}

func shapeJob(j *job.Job) *jobResponse {
	resp := &jobResponse{Job: j}
	if j.Type == job.JobTranscribe && len(j.Params) > 0 {
		var params job.TranscribeParams
		if err := json.Unmarshal(j.Params, &params); err == nil {
			resp.TranscriptID = params.TranscriptID
			resp.Engine = params.Engine
		}
	}
	if len(j.Result) > 0 {
		var result job.TranscribeResult
		if err := json.Unmarshal(j.Result, &result); err == nil {
			resp.Transcription = &result
		}
	}
	return resp
}

// ListJobs returns every job in the queue, newest first.
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.queue.ListJobs()
	if err != nil {
		jsonError(w, "failed to list jobs: "+err.Error(), http.StatusInternalServerError)
		return
	}

	shaped := make([]*jobResponse, 0, len(jobs))
	for _, j := range jobs {
		shaped = append(shaped, shapeJob(j))
	}
	jsonResponse(w, shaped, http.StatusOK)
}

// GetJob returns a single job by ID
func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	j, err := h.queue.GetJob(id)
	if err != nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	jsonResponse(w, shapeJob(j), http.StatusOK)
}

// CancelJob cancels a pending or running job
func (h *JobHandler) CancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	if err := h.queue.CancelJob(id); err != nil {
		jsonError(w, "failed to cancel job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RetryJob re-queues a failed or cancelled transcription
func (h *JobHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing job ID", http.StatusBadRequest)
		return
	}

	if err := h.queue.RetryJob(id); err != nil {
		jsonError(w, "failed to retry job: "+err.Error(), http.StatusBadRequest)
		return
	}

	jsonResponse(w, map[string]string{"status": "retrying"}, http.StatusOK)
}

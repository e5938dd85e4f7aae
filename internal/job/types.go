package job

import (
	"context"
	"encoding/json"
	"time"
)

// JobType represents the kind of job
type JobType string

const (
	JobTranscribe JobType = "transcribe"
)

// JobStatus represents the current state of a job
type JobStatus string

const (
	StatusPending   JobStatus = "pending"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job represents a queued transcription task
type Job struct {
	ID          string          `json:"id"`
	Type        JobType         `json:"type"`
	Status      JobStatus       `json:"status"`
	FilePath    string          `json:"file_path"`
	Params      json.RawMessage `json:"params"`
	Progress    float64         `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// TranscribeParams are parameters for a transcription job
type TranscribeParams struct {
	TranscriptID  string `json:"transcript_id"`            // owning transcript row
	Engine        string `json:"engine"`                   // "gemini"
	MimeType      string `json:"mime_type"`                // audio MIME type, e.g. "audio/mpeg"
	ReferenceText string `json:"reference_text,omitempty"` // optional ground-truth transcript
}

// TranscribeResult is the output of a successful transcription
type TranscribeResult struct {
	OutputPath   string  `json:"output_path"`   // path to the generated SRT, relative to the subtitle dir
	SegmentCount int     `json:"segment_count"` // number of subtitle segments produced
	Duration     float64 `json:"duration"`      // processing time in seconds
}

// JobHandler processes a job. Implementations are provided by the transcribe package.
type JobHandler func(ctx context.Context, job *Job, updateProgress func(float64)) error

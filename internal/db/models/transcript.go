package models

import "time"

// Transcript is one uploaded audio file and, once the transcription job has
// finished, the subtitle generated for it.
type Transcript struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Filename     string    `json:"filename"`  // original upload name
	FilePath     string    `json:"file_path"` // stored path relative to the upload dir
	MimeType     string    `json:"mime_type"`
	SizeBytes    int64     `json:"size_bytes"`
	HasReference bool      `json:"has_reference"` // a reference transcript was supplied
	JobID        string    `json:"job_id"`
	SrtPath      string    `json:"srt_path,omitempty"` // relative to the subtitle dir, set on success
	CreatedAt    time.Time `json:"created_at"`
}

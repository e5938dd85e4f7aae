package handlers

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/audioscribe/backend/internal/api/middleware"
	"github.com/audioscribe/backend/internal/db"
	"github.com/audioscribe/backend/internal/db/models"
	"github.com/audioscribe/backend/internal/job"
	"github.com/audioscribe/backend/internal/storage"
)

// maxReferenceBytes caps the optional reference transcript. It is plain
// text; anything bigger than this is not a transcript.
const maxReferenceBytes = 1 << 20

type TranscriptionHandler struct {
	db             *db.Database
	queue          *job.JobQueue
	uploadPath     string
	subtitlePath   string
	maxUploadBytes int64
}

func NewTranscriptionHandler(database *db.Database, queue *job.JobQueue, uploadPath, subtitlePath string, maxUploadBytes int64) *TranscriptionHandler {
	return &TranscriptionHandler{
		db:             database,
		queue:          queue,
		uploadPath:     uploadPath,
		subtitlePath:   subtitlePath,
		maxUploadBytes: maxUploadBytes,
	}
}

// transcriptResponse joins a transcript row with its job state
type transcriptResponse struct {
	*models.Transcript
	Status   job.JobStatus `json:"status"`
	Progress float64       `json:"progress"`
	Error    string        `json:"error,omitempty"`
}

func (h *TranscriptionHandler) withJobState(t *models.Transcript) *transcriptResponse {
	resp := &transcriptResponse{Transcript: t, Status: job.StatusPending}
	if j, err := h.queue.GetJob(t.JobID); err == nil {
		resp.Status = j.Status
		resp.Progress = j.Progress
		resp.Error = j.Error
	}
	return resp
}

// Create accepts a multipart upload (audio file + optional reference
// transcript) and enqueues a transcription job for it.
func (h *TranscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid or oversized upload", http.StatusBadRequest)
		return
	}

	audioFile, audioHeader, err := r.FormFile("audio")
	if err != nil {
		jsonError(w, "audio file required", http.StatusBadRequest)
		return
	}
	defer audioFile.Close()

	if !storage.IsAudioFile(audioHeader.Filename) {
		jsonError(w, fmt.Sprintf("unsupported audio file: %s", audioHeader.Filename), http.StatusBadRequest)
		return
	}

	referenceText, err := h.readReference(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := uuid.New().String()
	relPath, err := storage.SaveUpload(h.uploadPath, id, audioHeader.Filename, audioFile)
	if err != nil {
		jsonError(w, "failed to store upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	mimeType := storage.AudioMimeType(audioHeader.Filename)

	// The transcript row must exist before the job starts, otherwise a
	// fast worker has nowhere to record the subtitle path.
	t := &models.Transcript{
		ID:           id,
		UserID:       claims.UserID,
		Filename:     audioHeader.Filename,
		FilePath:     relPath,
		MimeType:     mimeType,
		SizeBytes:    audioHeader.Size,
		HasReference: referenceText != "",
		CreatedAt:    time.Now(),
	}
	if err := h.db.CreateTranscript(t); err != nil {
		storage.Remove(h.uploadPath, relPath)
		jsonError(w, "failed to save transcript: "+err.Error(), http.StatusInternalServerError)
		return
	}

	j, err := h.queue.Enqueue(job.JobTranscribe, relPath, job.TranscribeParams{
		TranscriptID:  id,
		Engine:        "gemini",
		MimeType:      mimeType,
		ReferenceText: referenceText,
	})
	if err != nil {
		h.db.DeleteTranscript(id)
		storage.Remove(h.uploadPath, relPath)
		jsonError(w, "failed to enqueue job: "+err.Error(), http.StatusInternalServerError)
		return
	}

	t.JobID = j.ID
	if err := h.db.SetTranscriptJob(id, j.ID); err != nil {
		log.Printf("[transcription] failed to link job %s to transcript %s: %v", j.ID, id, err)
	}

	jsonResponse(w, h.withJobState(t), http.StatusAccepted)
}

// readReference pulls the optional reference transcript from either an
// uploaded text file ("reference") or a plain form field ("reference_text").
func (h *TranscriptionHandler) readReference(r *http.Request) (string, error) {
	if f, _, err := r.FormFile("reference"); err == nil {
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, maxReferenceBytes+1))
		if err != nil {
			return "", fmt.Errorf("failed to read reference file")
		}
		if len(data) > maxReferenceBytes {
			return "", fmt.Errorf("reference transcript too large")
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.TrimSpace(r.FormValue("reference_text")), nil
}

// List returns the caller's transcripts
func (h *TranscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	transcripts, err := h.db.ListTranscripts(claims.UserID)
	if err != nil {
		jsonError(w, "failed to list transcripts: "+err.Error(), http.StatusInternalServerError)
		return
	}

	result := make([]*transcriptResponse, 0, len(transcripts))
	for _, t := range transcripts {
		result = append(result, h.withJobState(t))
	}
	jsonResponse(w, result, http.StatusOK)
}

// Get returns a single transcript with its job state
func (h *TranscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTranscript(w, r)
	if t == nil {
		return
	}
	jsonResponse(w, h.withJobState(t), http.StatusOK)
}

// Delete removes a transcript, its upload and its generated subtitle
func (h *TranscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTranscript(w, r)
	if t == nil {
		return
	}

	h.queue.CancelJob(t.JobID)
	storage.Remove(h.uploadPath, t.FilePath)
	if t.SrtPath != "" {
		storage.Remove(h.subtitlePath, t.SrtPath)
	}
	if err := h.db.DeleteTranscript(t.ID); err != nil {
		jsonError(w, "failed to delete transcript: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadSRT serves the generated subtitle as a download named after the
// original audio file with a .srt extension.
func (h *TranscriptionHandler) DownloadSRT(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTranscript(w, r)
	if t == nil {
		return
	}
	if t.SrtPath == "" {
		jsonError(w, "subtitle not ready", http.StatusConflict)
		return
	}

	f, err := storage.Open(h.subtitlePath, t.SrtPath)
	if err != nil {
		jsonError(w, "subtitle file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	downloadName := storage.DerivedSRTName(t.Filename)
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	io.Copy(w, f)
}

// PreviewVTT serves the generated subtitle converted to WebVTT so browsers
// can render it directly on an <audio>/<video> element.
func (h *TranscriptionHandler) PreviewVTT(w http.ResponseWriter, r *http.Request) {
	t := h.ownedTranscript(w, r)
	if t == nil {
		return
	}
	if t.SrtPath == "" {
		jsonError(w, "subtitle not ready", http.StatusConflict)
		return
	}

	f, err := storage.Open(h.subtitlePath, t.SrtPath)
	if err != nil {
		jsonError(w, "subtitle file not found", http.StatusNotFound)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		jsonError(w, "failed to read subtitle", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/vtt; charset=utf-8")
	w.Write(srtToVTT(data))
}

// ownedTranscript loads the transcript from the URL and enforces ownership.
// It writes the error response itself and returns nil when the caller
// should stop.
func (h *TranscriptionHandler) ownedTranscript(w http.ResponseWriter, r *http.Request) *models.Transcript {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing transcript ID", http.StatusBadRequest)
		return nil
	}

	t, err := h.db.GetTranscript(id)
	if err != nil {
		jsonError(w, "transcript not found", http.StatusNotFound)
		return nil
	}
	if t.UserID != claims.UserID && claims.Role != "admin" {
		jsonError(w, "forbidden", http.StatusForbidden)
		return nil
	}

	return t
}

var srtTimestampRe = regexp.MustCompile(`(\d{2,}:\d{2}:\d{2}),(\d{3})\s*-->\s*(\d{2,}:\d{2}:\d{2}),(\d{3})`)

// srtToVTT converts SRT subtitle content to WebVTT
func srtToVTT(srtData []byte) []byte {
	var buf bytes.Buffer
	buf.WriteString("WEBVTT\n\n")

	content := strings.ReplaceAll(string(srtData), "\r\n", "\n")

	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := scanner.Text()
		// Convert SRT timestamp commas to VTT dots
		if srtTimestampRe.MatchString(line) {
			line = srtTimestampRe.ReplaceAllString(line, "$1.$2 --> $3.$4")
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

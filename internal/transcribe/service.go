package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/audioscribe/backend/internal/job"
	"github.com/audioscribe/backend/internal/srt"
	"github.com/audioscribe/backend/internal/storage"
)

// TranscriptStore records the generated subtitle path for a transcript row.
type TranscriptStore interface {
	SetTranscriptOutput(id, srtPath string) error
}

// Service manages transcription engines and processes queued jobs
type Service struct {
	engines      map[string]Transcriber
	uploadPath   string
	subtitlePath string
	store        TranscriptStore
}

// NewService creates a transcription service with available engines
func NewService(uploadPath, subtitlePath string, store TranscriptStore) *Service {
	return &Service{
		engines:      make(map[string]Transcriber),
		uploadPath:   uploadPath,
		subtitlePath: subtitlePath,
		store:        store,
	}
}

// RegisterEngine adds a transcription engine
func (s *Service) RegisterEngine(engine Transcriber) {
	s.engines[engine.Name()] = engine
	log.Printf("[transcribe] registered %s engine", engine.Name())
}

// HandleJob processes a transcription job: read the uploaded audio, run the
// engine, encode the segments as SRT and write the result next to the upload.
func (s *Service) HandleJob(ctx context.Context, j *job.Job, updateProgress func(float64)) error {
	var params job.TranscribeParams
	if err := json.Unmarshal(j.Params, &params); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	engineName := params.Engine
	if engineName == "" {
		engineName = "gemini"
	}
	engine, ok := s.engines[engineName]
	if !ok {
		return fmt.Errorf("unknown transcription engine: %s (available: %v)", engineName, s.engineNames())
	}

	fullPath := filepath.Join(s.uploadPath, j.FilePath)
	audio, err := os.ReadFile(fullPath)
	if err != nil {
		return fmt.Errorf("read audio: %w", err)
	}

	log.Printf("[transcribe] starting: engine=%s file=%s mime=%s reference=%t",
		engineName, j.FilePath, params.MimeType, params.ReferenceText != "")

	started := time.Now()
	updateProgress(0.1)

	segments, err := engine.Transcribe(ctx, Request{
		Audio:         audio,
		MimeType:      params.MimeType,
		ReferenceText: params.ReferenceText,
	})
	if err != nil {
		return err
	}

	updateProgress(0.9)

	// Write the SRT under the subtitle dir, named after the audio file and
	// namespaced by transcript so equal upload names never collide.
	outName := storage.DerivedSRTName(j.FilePath)
	if params.TranscriptID != "" {
		outName = filepath.Join(params.TranscriptID, outName)
	}
	outPath := filepath.Join(s.subtitlePath, outName)
	os.MkdirAll(filepath.Dir(outPath), 0755)
	if err := os.WriteFile(outPath, []byte(srt.Encode(segments)), 0644); err != nil {
		return fmt.Errorf("save subtitle: %w", err)
	}

	if s.store != nil && params.TranscriptID != "" {
		if err := s.store.SetTranscriptOutput(params.TranscriptID, outName); err != nil {
			return fmt.Errorf("record output: %w", err)
		}
	}

	log.Printf("[transcribe] complete: %s (%d segments)", outPath, len(segments))

	resultJSON, _ := json.Marshal(job.TranscribeResult{
		OutputPath:   outName,
		SegmentCount: len(segments),
		Duration:     time.Since(started).Seconds(),
	})
	j.Result = resultJSON

	updateProgress(1.0)
	return nil
}

func (s *Service) engineNames() []string {
	names := make([]string, 0, len(s.engines))
	for name := range s.engines {
		names = append(names, name)
	}
	return names
}

package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/audioscribe/backend/internal/db/models"
)

func testDatabase(t *testing.T) *Database {
	t.Helper()
	d, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleTranscript(id string) *models.Transcript {
	return &models.Transcript{
		ID:        id,
		UserID:    1,
		Filename:  "talk.mp3",
		FilePath:  id + "/talk.mp3",
		MimeType:  "audio/mpeg",
		SizeBytes: 1024,
		CreatedAt: time.Now(),
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	d := testDatabase(t)
	if err := d.CreateTranscript(sampleTranscript("t1")); err != nil {
		t.Fatal(err)
	}
	if err := d.SetTranscriptJob("t1", "job-1"); err != nil {
		t.Fatalf("set job: %v", err)
	}
	if err := d.SetTranscriptOutput("t1", "t1/talk.srt"); err != nil {
		t.Fatalf("set output: %v", err)
	}

	got, err := d.GetTranscript("t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.JobID != "job-1" || got.SrtPath != "t1/talk.srt" {
		t.Fatalf("transcript not updated: %+v", got)
	}
}

func TestSetTranscriptOutputMissingRow(t *testing.T) {
	d := testDatabase(t)
	if err := d.SetTranscriptOutput("no-such-transcript", "x/talk.srt"); err == nil {
		t.Fatal("expected error updating a nonexistent transcript")
	}
}

func TestSetTranscriptJobMissingRow(t *testing.T) {
	d := testDatabase(t)
	if err := d.SetTranscriptJob("no-such-transcript", "job-1"); err == nil {
		t.Fatal("expected error updating a nonexistent transcript")
	}
}

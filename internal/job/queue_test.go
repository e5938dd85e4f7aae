package job

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	file_path TEXT NOT NULL,
	params TEXT NOT NULL,
	progress REAL DEFAULT 0,
	result TEXT,
	error TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	started_at DATETIME,
	completed_at DATETIME
);`

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db")+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func waitForStatus(t *testing.T, q *JobQueue, id string, want JobStatus) *Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := q.GetJob(id)
		if err == nil && j.Status == want {
			return j
		}
		time.Sleep(10 * time.Millisecond)
	}
	j, _ := q.GetJob(id)
	t.Fatalf("job %s never reached %s (last: %+v)", id, want, j)
	return nil
}

func TestEnqueueAndComplete(t *testing.T) {
	q := NewJobQueue(testDB(t))
	defer q.Stop()

	q.RegisterHandler(JobTranscribe, func(ctx context.Context, j *Job, progress func(float64)) error {
		progress(0.5)
		j.Result = json.RawMessage(`{"output_path":"a.srt","segment_count":3}`)
		return nil
	})

	j, err := q.Enqueue(JobTranscribe, "u1/a.mp3", TranscribeParams{MimeType: "audio/mpeg"})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if j.Status != StatusPending {
		t.Fatalf("new job status = %s", j.Status)
	}

	done := waitForStatus(t, q, j.ID, StatusCompleted)
	if done.Progress != 1.0 {
		t.Errorf("completed job progress = %v", done.Progress)
	}
	var result TranscribeResult
	if err := json.Unmarshal(done.Result, &result); err != nil || result.OutputPath != "a.srt" {
		t.Errorf("result not persisted: %s (%v)", done.Result, err)
	}
}

func TestFailedJobRecordsError(t *testing.T) {
	q := NewJobQueue(testDB(t))
	defer q.Stop()

	q.RegisterHandler(JobTranscribe, func(ctx context.Context, j *Job, progress func(float64)) error {
		return fmt.Errorf("transcription failed: no network")
	})

	j, err := q.Enqueue(JobTranscribe, "u1/a.mp3", TranscribeParams{})
	if err != nil {
		t.Fatal(err)
	}

	failed := waitForStatus(t, q, j.ID, StatusFailed)
	if failed.Error == "" {
		t.Fatal("failed job carries no error message")
	}
}

func TestRetryJob(t *testing.T) {
	q := NewJobQueue(testDB(t))
	defer q.Stop()

	attempts := 0
	q.RegisterHandler(JobTranscribe, func(ctx context.Context, j *Job, progress func(float64)) error {
		attempts++
		if attempts == 1 {
			return fmt.Errorf("first attempt fails")
		}
		return nil
	})

	j, err := q.Enqueue(JobTranscribe, "u1/a.mp3", TranscribeParams{})
	if err != nil {
		t.Fatal(err)
	}
	waitForStatus(t, q, j.ID, StatusFailed)

	if err := q.RetryJob(j.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	waitForStatus(t, q, j.ID, StatusCompleted)

	// Retrying a completed job is an error
	if err := q.RetryJob(j.ID); err == nil {
		t.Fatal("retry of completed job must fail")
	}
}

func TestCancelPendingJob(t *testing.T) {
	q := NewJobQueue(testDB(t))
	defer q.Stop()
	// No handler registered for this type, so the job stays pending only
	// briefly; cancel before the worker rejects it by using a custom type.
	j, err := q.Enqueue(JobType("other"), "u1/a.mp3", TranscribeParams{})
	if err != nil {
		t.Fatal(err)
	}
	// The worker fails unknown-type jobs; either outcome must be terminal.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		got, err := q.GetJob(j.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == StatusFailed || got.Status == StatusCancelled {
			return
		}
		q.CancelJob(j.ID)
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
}

func TestListJobsNewestFirst(t *testing.T) {
	q := NewJobQueue(testDB(t))
	defer q.Stop()

	q.RegisterHandler(JobTranscribe, func(ctx context.Context, j *Job, progress func(float64)) error {
		return nil
	})

	first, _ := q.Enqueue(JobTranscribe, "a.mp3", TranscribeParams{})
	waitForStatus(t, q, first.ID, StatusCompleted)
	time.Sleep(20 * time.Millisecond) // ensure distinct created_at
	second, _ := q.Enqueue(JobTranscribe, "b.mp3", TranscribeParams{})
	waitForStatus(t, q, second.ID, StatusCompleted)

	jobs, err := q.ListJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != second.ID {
		t.Errorf("jobs not ordered newest first")
	}
}

// A pending row that never made it onto the channel (full at enqueue
// time) must still get processed by the periodic scan.
func TestPendingScanPicksUpStrandedJob(t *testing.T) {
	db := testDB(t)
	q := NewJobQueue(db)
	defer q.Stop()

	q.RegisterHandler(JobTranscribe, func(ctx context.Context, j *Job, progress func(float64)) error {
		return nil
	})

	// Insert the row directly, bypassing the channel push in Enqueue.
	id := "stranded-job"
	if _, err := db.Exec(`
		INSERT INTO jobs (id, type, status, file_path, params, progress, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)`,
		id, JobTranscribe, StatusPending, "u1/a.mp3", `{"mime_type":"audio/mpeg"}`, time.Now(),
	); err != nil {
		t.Fatal(err)
	}

	q.enqueuePending()
	waitForStatus(t, q, id, StatusCompleted)
}

func TestEnqueuePendingSkipsFinishedJobs(t *testing.T) {
	db := testDB(t)
	q := NewJobQueue(db)
	defer q.Stop()

	if _, err := db.Exec(`
		INSERT INTO jobs (id, type, status, file_path, params, progress, created_at)
		VALUES (?, ?, ?, ?, ?, 1.0, ?)`,
		"done-job", JobTranscribe, StatusCompleted, "u1/a.mp3", `{}`, time.Now(),
	); err != nil {
		t.Fatal(err)
	}

	if n := q.enqueuePending(); n != 0 {
		t.Fatalf("pending scan queued %d jobs, want 0", n)
	}
}

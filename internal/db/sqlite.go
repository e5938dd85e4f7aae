package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/audioscribe/backend/internal/auth"
	"github.com/audioscribe/backend/internal/db/models"
)

type Database struct {
	db *sql.DB
}

func NewSQLite(path string) (*Database, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	d := &Database{db: sqlDB}
	if err := d.migrate(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'viewer',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

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
	);

	CREATE TABLE IF NOT EXISTS transcripts (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		filename TEXT NOT NULL,
		file_path TEXT NOT NULL,
		mime_type TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		has_reference INTEGER NOT NULL DEFAULT 0,
		job_id TEXT NOT NULL,
		srt_path TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
	`
	_, err := d.db.Exec(schema)
	return err
}

func (d *Database) EnsureAdmin(username, password string) error {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'admin'").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = d.db.Exec(
		"INSERT INTO users (username, password, role) VALUES (?, ?, 'admin')",
		username, hash,
	)
	return err
}

func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE username = ?",
		username,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (d *Database) GetUserByID(id int64) (*models.User, error) {
	u := &models.User{}
	err := d.db.QueryRow(
		"SELECT id, username, password, role, created_at, updated_at FROM users WHERE id = ?",
		id,
	).Scan(&u.ID, &u.Username, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// CreateTranscript inserts a new transcript row for an upload
func (d *Database) CreateTranscript(t *models.Transcript) error {
	_, err := d.db.Exec(`
		INSERT INTO transcripts (id, user_id, filename, file_path, mime_type, size_bytes, has_reference, job_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Filename, t.FilePath, t.MimeType, t.SizeBytes, t.HasReference, t.JobID, t.CreatedAt,
	)
	return err
}

func (d *Database) GetTranscript(id string) (*models.Transcript, error) {
	t := &models.Transcript{}
	var srtPath sql.NullString
	err := d.db.QueryRow(`
		SELECT id, user_id, filename, file_path, mime_type, size_bytes, has_reference, job_id, srt_path, created_at
		FROM transcripts WHERE id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.Filename, &t.FilePath, &t.MimeType, &t.SizeBytes, &t.HasReference, &t.JobID, &srtPath, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if srtPath.Valid {
		t.SrtPath = srtPath.String
	}
	return t, nil
}

// ListTranscripts returns a user's transcripts, newest first
func (d *Database) ListTranscripts(userID int64) ([]*models.Transcript, error) {
	rows, err := d.db.Query(`
		SELECT id, user_id, filename, file_path, mime_type, size_bytes, has_reference, job_id, srt_path, created_at
		FROM transcripts WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transcripts []*models.Transcript
	for rows.Next() {
		t := &models.Transcript{}
		var srtPath sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Filename, &t.FilePath, &t.MimeType, &t.SizeBytes,
			&t.HasReference, &t.JobID, &srtPath, &t.CreatedAt); err != nil {
			return nil, err
		}
		if srtPath.Valid {
			t.SrtPath = srtPath.String
		}
		transcripts = append(transcripts, t)
	}

	return transcripts, rows.Err()
}

// CountTranscripts returns how many transcripts a user owns
func (d *Database) CountTranscripts(userID int64) (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM transcripts WHERE user_id = ?", userID).Scan(&n)
	return n, err
}

// SetTranscriptJob links a transcript to its queued job
func (d *Database) SetTranscriptJob(id, jobID string) error {
	res, err := d.db.Exec("UPDATE transcripts SET job_id = ? WHERE id = ?", jobID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transcript not found: %s", id)
	}
	return nil
}

// SetTranscriptOutput records the generated subtitle path after a successful
// transcription job
func (d *Database) SetTranscriptOutput(id, srtPath string) error {
	res, err := d.db.Exec("UPDATE transcripts SET srt_path = ? WHERE id = ?", srtPath, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transcript not found: %s", id)
	}
	return nil
}

// DeleteTranscript removes a transcript row
func (d *Database) DeleteTranscript(id string) error {
	_, err := d.db.Exec("DELETE FROM transcripts WHERE id = ?", id)
	return err
}

// GetSetting returns a setting value by key, or defaultVal if not found
func (d *Database) GetSetting(key, defaultVal string) string {
	var val string
	err := d.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&val)
	if err != nil {
		return defaultVal
	}
	return val
}

// SetSetting upserts a setting
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = ?, updated_at = CURRENT_TIMESTAMP`,
		key, value, value,
	)
	return err
}

// GetAllSettings returns all settings as a map
func (d *Database) GetAllSettings() (map[string]string, error) {
	rows, err := d.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		result[k] = v
	}
	return result, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// DB returns the underlying sql.DB for use by other packages (e.g., job queue)
func (d *Database) DB() *sql.DB {
	return d.db
}

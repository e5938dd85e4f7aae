package storage

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

var audioExtensions = map[string]bool{
	".mp3": true, ".wav": true, ".m4a": true, ".aac": true,
	".ogg": true, ".oga": true, ".opus": true, ".flac": true,
	".webm": true, ".mp4": true,
}

// audioMimeTypes covers extensions the stdlib mime table misses or maps
// to video types.
var audioMimeTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".aac":  "audio/aac",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/opus",
	".flac": "audio/flac",
	".webm": "audio/webm",
	".mp4":  "audio/mp4",
}

func IsAudioFile(name string) bool {
	return audioExtensions[strings.ToLower(filepath.Ext(name))]
}

// AudioMimeType returns the MIME type for an uploaded audio file name.
func AudioMimeType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := audioMimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	return "application/octet-stream"
}

// DerivedSRTName returns the subtitle file name for an uploaded audio file:
// the audio base name with its extension replaced by ".srt".
func DerivedSRTName(audioName string) string {
	base := filepath.Base(audioName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".srt"
}

// SaveUpload writes an uploaded file under basePath/<id>/<name> and returns
// the path relative to basePath. The id namespaces uploads so identical
// file names never collide.
func SaveUpload(basePath, id, name string, src io.Reader) (string, error) {
	name = filepath.Base(name) // strip any client-supplied directories
	relPath := filepath.Join(id, name)

	fullPath, err := resolveWithin(basePath, relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", err
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	written, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(fullPath)
		return "", err
	}
	if written == 0 {
		os.Remove(fullPath)
		return "", fmt.Errorf("empty upload: %s", name)
	}

	return relPath, nil
}

// Open returns a reader for a stored file, refusing paths that escape
// basePath.
func Open(basePath, relPath string) (*os.File, error) {
	fullPath, err := resolveWithin(basePath, relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(fullPath)
}

// Remove deletes a stored file and its containing upload directory if the
// directory is left empty.
func Remove(basePath, relPath string) error {
	fullPath, err := resolveWithin(basePath, relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	// Best effort: drop the per-upload directory when empty.
	os.Remove(filepath.Dir(fullPath))
	return nil
}

// resolveWithin joins relPath onto basePath and rejects path traversal.
func resolveWithin(basePath, relPath string) (string, error) {
	fullPath := filepath.Join(basePath, relPath)

	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(fullPath)
	if err != nil {
		return "", err
	}
	if absFull != absBase && !strings.HasPrefix(absFull, absBase+string(filepath.Separator)) {
		return "", os.ErrPermission
	}

	return fullPath, nil
}

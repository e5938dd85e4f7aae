package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsAudioFile(t *testing.T) {
	yes := []string{"a.mp3", "b.WAV", "c.m4a", "d.flac", "e.ogg"}
	no := []string{"a.txt", "b.srt", "c.exe", "noext"}
	for _, name := range yes {
		if !IsAudioFile(name) {
			t.Errorf("IsAudioFile(%q) = false", name)
		}
	}
	for _, name := range no {
		if IsAudioFile(name) {
			t.Errorf("IsAudioFile(%q) = true", name)
		}
	}
}

func TestAudioMimeType(t *testing.T) {
	cases := map[string]string{
		"a.mp3":  "audio/mpeg",
		"b.wav":  "audio/wav",
		"c.flac": "audio/flac",
		"d.bin":  "application/octet-stream",
	}
	for name, want := range cases {
		if got := AudioMimeType(name); got != want {
			t.Errorf("AudioMimeType(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestDerivedSRTName(t *testing.T) {
	cases := map[string]string{
		"interview.mp3":      "interview.srt",
		"dir/speech.wav":     "speech.srt",
		"noext":              "noext.srt",
		"two.dots.final.m4a": "two.dots.final.srt",
	}
	for in, want := range cases {
		if got := DerivedSRTName(in); got != want {
			t.Errorf("DerivedSRTName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSaveUpload(t *testing.T) {
	base := t.TempDir()
	rel, err := SaveUpload(base, "id1", "song.mp3", strings.NewReader("content"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if rel != filepath.Join("id1", "song.mp3") {
		t.Fatalf("unexpected rel path %q", rel)
	}
	data, err := os.ReadFile(filepath.Join(base, rel))
	if err != nil || string(data) != "content" {
		t.Fatalf("stored file wrong: %q %v", data, err)
	}
}

func TestSaveUploadRejectsEmpty(t *testing.T) {
	base := t.TempDir()
	if _, err := SaveUpload(base, "id1", "empty.mp3", strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty upload")
	}
	if _, err := os.Stat(filepath.Join(base, "id1", "empty.mp3")); !os.IsNotExist(err) {
		t.Fatal("empty upload left on disk")
	}
}

func TestSaveUploadStripsDirectories(t *testing.T) {
	base := t.TempDir()
	rel, err := SaveUpload(base, "id1", "../../etc/passwd.mp3", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}
	if strings.Contains(rel, "..") {
		t.Fatalf("client path not sanitized: %q", rel)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	if _, err := Open(base, "../outside.txt"); err == nil {
		t.Fatal("expected traversal to be rejected")
	}
}

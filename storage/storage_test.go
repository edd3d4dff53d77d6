package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	urlPath, err := s.Save("report.jpg", strings.NewReader("jpeg-bytes"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasPrefix(urlPath, "/uploads/") {
		t.Errorf("urlPath = %q, want /uploads/ prefix", urlPath)
	}
	if !strings.HasSuffix(urlPath, "-report.jpg") {
		t.Errorf("urlPath = %q, want timestamped original name", urlPath)
	}

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(urlPath, "/uploads/")))
	if err != nil {
		t.Fatalf("reading stored file: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("stored contents = %q", data)
	}
}

func TestSaveStripsDirectoryComponents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	urlPath, err := s.Save("../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if strings.Contains(urlPath, "..") {
		t.Errorf("urlPath = %q leaks path traversal", urlPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if !strings.HasSuffix(entries[0].Name(), "-passwd") {
		t.Errorf("stored name = %q", entries[0].Name())
	}
}

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pothole.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload/new" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm: %v", err)
		}
		if got := r.FormValue("userId"); got != "user-1" {
			t.Errorf("userId = %q", got)
		}
		if got := r.FormValue("location"); got != "Main St, Springfield" {
			t.Errorf("location = %q", got)
		}
		if got := r.FormValue("summary"); got != "Pothole" {
			t.Errorf("summary = %q", got)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("missing image: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"message": "Upload saved successfully!",
			"data": {
				"_id": "up-1",
				"summary": "Pothole",
				"address": "Main St, Springfield",
				"latitude": 39.78,
				"longitude": -89.65,
				"imageUrl": "/uploads/1-pothole.jpg",
				"createdAt": "2025-06-01T12:00:00Z"
			}
		}`))
	}))
	defer srv.Close()

	data, err := New(srv.URL).Submit(context.Background(), SubmitRequest{
		UserID:    "user-1",
		Location:  "Main St, Springfield",
		Summary:   "Pothole",
		ImagePath: tempImage(t),
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if data.ID != "up-1" {
		t.Errorf("id = %q", data.ID)
	}
	if data.Latitude == nil || *data.Latitude != 39.78 {
		t.Errorf("latitude = %v", data.Latitude)
	}
}

func TestSubmitServerErrorDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "Missing required fields"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), SubmitRequest{
		UserID: "user-1", Location: "x", Summary: "y", ImagePath: tempImage(t),
	})
	if err == nil || !strings.Contains(err.Error(), "Missing required fields") {
		t.Fatalf("err = %v, want server detail surfaced", err)
	}
}

func TestSubmitOpaqueServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Submit(context.Background(), SubmitRequest{
		UserID: "user-1", Location: "x", Summary: "y", ImagePath: tempImage(t),
	})
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("err = %v, want status code surfaced", err)
	}
}

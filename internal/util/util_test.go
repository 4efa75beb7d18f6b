package util

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("jpeg-bytes"))
		case "/empty":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	body, err := GetBytes(ctx, srv.Client(), srv.URL+"/ok")
	if err != nil || string(body) != "jpeg-bytes" {
		t.Fatalf("GetBytes(/ok) = %q, %v", body, err)
	}

	if _, err := GetBytes(ctx, srv.Client(), srv.URL+"/empty"); !errors.Is(err, ErrEmptyBody) {
		t.Errorf("GetBytes(/empty) err = %v, want ErrEmptyBody", err)
	}

	_, err = GetBytes(ctx, srv.Client(), srv.URL+"/missing")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("GetBytes(/missing) err = %v, want 404 StatusError", err)
	}
}

func TestFileHelpers(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(dir); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "x.png")

	if ok, err := FileExists(path); ok || err != nil {
		t.Fatalf("FileExists before write = %v, %v", ok, err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if ok, err := FileExists(path); !ok || err != nil {
		t.Fatalf("FileExists after write = %v, %v", ok, err)
	}
	if ok, _ := FileExists(dir); ok {
		t.Error("a directory is not a file")
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Errorf("second remove = %v, want nil", err)
	}
}

package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"screenshot-publisher/internal/storage"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestFileStorageUploadAndList(t *testing.T) {
	ctx := context.Background()
	directory := t.TempDir()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
		Folder:    "screenshots",
		BaseURL:   "http://localhost:8080/images/",
	})
	if err != nil {
		t.Fatal(err)
	}

	assets, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]storage.Asset{}, assets); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	transient := filepath.Join(t.TempDir(), "example.com.png")
	if err := os.WriteFile(transient, []byte("\x89PNG\r\n\x1a\nfake"), 0644); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"example.com/b.png", "example.com/a.png"} {
		asset, err := s.Upload(ctx, storage.UploadInput{
			Path:   transient,
			Folder: "screenshots",
			Name:   name,
		})
		if err != nil {
			t.Fatal(err)
		}

		want := &storage.Asset{
			ID:     "screenshots/" + name,
			URL:    "http://localhost:8080/images/screenshots/" + name,
			Folder: "screenshots",
			Format: "png",
			Bytes:  12,
		}
		if diff := cmp.Diff(want, asset, cmpopts.IgnoreFields(storage.Asset{}, "CreatedAt")); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	}

	assets, err = s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}

	got := make([]string, 0, len(assets))
	for _, asset := range assets {
		got = append(got, asset.ID)
	}
	if diff := cmp.Diff([]string{"screenshots/example.com/a.png", "screenshots/example.com/b.png"}, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFileStorageUploadMissingFile(t *testing.T) {
	ctx := context.Background()

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{Directory: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.Upload(ctx, storage.UploadInput{
		Path:   filepath.Join(t.TempDir(), "missing.png"),
		Folder: "screenshots",
		Name:   "missing.png",
	}); err == nil {
		t.Error("want error for missing transient file")
	}
}

func TestAssetMarshalJSON(t *testing.T) {
	typed, err := json.Marshal(storage.Asset{
		ID:        "screenshots/example.com.png",
		URL:       "https://cdn.example.net/screenshots/example.com.png",
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`{"id":"screenshots/example.com.png","url":"https://cdn.example.net/screenshots/example.com.png","createdAt":"2024-01-02T03:04:05Z"}`, string(typed)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	raw, err := json.Marshal(storage.Asset{
		ID:  "ignored",
		Raw: json.RawMessage(`{"public_id":"abc","secure_url":"https://res.example.net/abc.png"}`),
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(`{"public_id":"abc","secure_url":"https://res.example.net/abc.png"}`, string(raw)); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

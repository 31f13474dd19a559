package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"screenshot-publisher/internal/capture"
	"screenshot-publisher/internal/storage"
	"screenshot-publisher/internal/target"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

type LocalConfig struct {
	// Directory holds transient screenshots between capture and upload.
	Directory string
	// Folder is the storage folder screenshots are published into.
	Folder string
}

// LocalBrowserCapture captures with a browser on this host and uploads the
// result itself.
type LocalBrowserCapture struct {
	capturer capture.Capturer
	storage  storage.Storage
	guard    *target.Guard
	config   LocalConfig
	now      func() time.Time
}

func NewLocalBrowserCapture(capturer capture.Capturer, s storage.Storage, guard *target.Guard, config LocalConfig) (*LocalBrowserCapture, error) {
	if config.Directory == "" {
		config.Directory = filepath.Join("public", "images")
	}
	if err := os.MkdirAll(config.Directory, 0755); err != nil {
		return nil, xerrors.Errorf("failed to create transient directory: %w", err)
	}

	return &LocalBrowserCapture{
		capturer: capturer,
		storage:  s,
		guard:    guard,
		config:   config,
		now:      time.Now,
	}, nil
}

func (l *LocalBrowserCapture) Capture(ctx context.Context, request Request) (asset *storage.Asset, err error) {
	ctx, span := tracer.Start(ctx, "LocalBrowserCapture.Capture", trace.WithAttributes(
		attribute.String("url", request.URL),
		attribute.Bool("full_page", request.FullPage),
	))
	defer func() {
		if err != nil {
			span.AddEvent("Failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.AddEvent("Done")
		}
		span.End()
	}()

	u, err := l.guard.Check(ctx, request.URL)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Op: "validate url", Err: err}
	}

	id := uuid.NewString()
	host := safeName(u.Hostname())
	path := filepath.Join(l.config.Directory, fmt.Sprintf("%s-%s.png", host, id))
	defer func() {
		span.AddEvent("CleaningUp")
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove transient screenshot", "path", path, "error", err)
		}
	}()

	span.AddEvent("Capturing")
	if err := l.capturer.Capture(ctx, u.String(), capture.Options{
		Path:     path,
		FullPage: request.FullPage,
	}); err != nil {
		return nil, &Error{Kind: KindCapture, Op: "capture " + u.String(), Err: err}
	}

	span.AddEvent("Uploading")
	asset, err = l.storage.Upload(ctx, storage.UploadInput{
		Path:   path,
		Folder: l.config.Folder,
		Name:   fmt.Sprintf("%s/%s-%s.png", host, l.now().UTC().Format("20060102150405"), id[:8]),
	})
	if err != nil {
		return nil, &Error{Kind: KindStorage, Op: "upload " + path, Err: err}
	}

	return asset, nil
}

func safeName(host string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, host)
}

package publish

import (
	"context"
	"encoding/json"
	"screenshot-publisher/internal/storage"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("screenshot-publisher/internal/publish")

type Request struct {
	URL      string `json:"url"`
	FullPage bool   `json:"fullPage"`

	// Body is the request body as received, forwarded as is by the proxy
	// strategy.
	Body json.RawMessage `json:"-"`
}

// DecodeRequest parses a capture request body.
func DecodeRequest(body []byte) (Request, error) {
	var request Request
	if err := json.Unmarshal(body, &request); err != nil {
		return Request{}, &Error{Kind: KindValidation, Op: "decode request", Err: err}
	}
	request.Body = body
	return request, nil
}

// Strategy turns a capture request into a published asset.
type Strategy interface {
	Capture(ctx context.Context, request Request) (*storage.Asset, error)
}

// List returns every previously published screenshot.
func List(ctx context.Context, s storage.Storage) ([]storage.Asset, error) {
	ctx, span := tracer.Start(ctx, "List")
	defer span.End()

	assets, err := s.List(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Kind: KindStorage, Op: "list uploads", Err: err}
	}
	return assets, nil
}

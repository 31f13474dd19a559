package publish

import (
	"context"
	"encoding/json"
	"screenshot-publisher/internal/storage"
	"screenshot-publisher/internal/target"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"
)

const DefaultProxyURL = "https://next-puppeteer-web-screenshot.vercel.app/api/images"

type ProxyConfig struct {
	URL     string
	Timeout time.Duration
}

// ProxyDelegateCapture hands the whole request to a remote instance of this
// service, for environments that cannot start a browser.
type ProxyDelegateCapture struct {
	client *resty.Client
	config ProxyConfig
}

func NewProxyDelegateCapture(config ProxyConfig) *ProxyDelegateCapture {
	if config.URL == "" {
		config.URL = DefaultProxyURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	return &ProxyDelegateCapture{
		client: resty.New().
			SetTimeout(config.Timeout).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		config: config,
	}
}

type proxyResponse struct {
	Result json.RawMessage `json:"result"`
}

func (p *ProxyDelegateCapture) Capture(ctx context.Context, request Request) (*storage.Asset, error) {
	ctx, span := tracer.Start(ctx, "ProxyDelegateCapture.Capture", trace.WithAttributes(
		attribute.String("url", request.URL),
		attribute.String("proxy", p.config.URL),
	))
	defer span.End()

	if _, err := target.Parse(request.URL); err != nil {
		return nil, &Error{Kind: KindValidation, Op: "validate url", Err: err}
	}

	body := request.Body
	if body == nil {
		b, err := json.Marshal(request)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Op: "encode request", Err: err}
		}
		body = b
	}

	response, err := p.client.R().
		SetContext(ctx).
		SetBody([]byte(body)).
		Post(p.config.URL)
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Kind: KindProxy, Op: "post " + p.config.URL, Err: err}
	}
	span.SetAttributes(attribute.Int("proxy.status_code", response.StatusCode()))

	if response.IsError() || response.StatusCode() < 200 || response.StatusCode() > 299 {
		return nil, &ProxyError{
			StatusCode: response.StatusCode(),
			Payload:    response.Body(),
		}
	}

	var data proxyResponse
	if err := json.Unmarshal(response.Body(), &data); err != nil {
		return nil, &Error{Kind: KindProxy, Op: "decode proxy response", Err: xerrors.Errorf("failed to unmarshal proxy response: %w", err)}
	}
	if len(data.Result) == 0 {
		data.Result = json.RawMessage("null")
	}

	return &storage.Asset{Raw: data.Result}, nil
}

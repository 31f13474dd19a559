package routes_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"runtime"
	"screenshot-publisher/internal/publish"
	"screenshot-publisher/internal/routes"
	"screenshot-publisher/internal/storage"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type strategyMock struct {
	calls       int
	fakeCapture func(ctx context.Context, request publish.Request) (*storage.Asset, error)
}

func (m *strategyMock) Capture(ctx context.Context, request publish.Request) (*storage.Asset, error) {
	m.calls++
	return m.fakeCapture(ctx, request)
}

type storageMock struct {
	listCalls int
	fakeList  func(ctx context.Context) ([]storage.Asset, error)
}

func (m *storageMock) Upload(ctx context.Context, input storage.UploadInput) (*storage.Asset, error) {
	return nil, errors.New("unexpected upload")
}

func (m *storageMock) List(ctx context.Context) ([]storage.Asset, error) {
	m.listCalls++
	return m.fakeList(ctx)
}

func published(ctx context.Context, request publish.Request) (*storage.Asset, error) {
	return &storage.Asset{
		ID:  "screenshots/example.com/20240102030405-abcdef12.png",
		URL: "https://assets.example.net/screenshots/example.com/20240102030405-abcdef12.png",
	}, nil
}

func listed(ctx context.Context) ([]storage.Asset, error) {
	return []storage.Asset{
		{ID: "screenshots/b.png", URL: "https://assets.example.net/screenshots/b.png"},
		{ID: "screenshots/a.png", URL: "https://assets.example.net/screenshots/a.png"},
	}, nil
}

func TestImages(t *testing.T) {
	type in struct {
		method string
		body   string
	}

	type want struct {
		statusCode   int
		body         string
		captureCalls int
		listCalls    int
	}

	tests := []struct {
		name     string
		strategy *strategyMock
		storage  *storageMock
		in       in
		want     want
	}{
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: listed},
			in{http.MethodGet, ""},
			want{
				http.StatusOK,
				`{"message":"Success","result":[{"id":"screenshots/b.png","url":"https://assets.example.net/screenshots/b.png"},{"id":"screenshots/a.png","url":"https://assets.example.net/screenshots/a.png"}]}`,
				0,
				1,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: func(ctx context.Context) ([]storage.Asset, error) {
				return nil, errors.New("dial tcp 10.0.0.5:443: connection refused")
			}},
			in{http.MethodGet, ""},
			want{
				http.StatusBadRequest,
				`{"message":"Error","error":{"kind":"storage","message":"failed to reach the asset storage"}}`,
				0,
				1,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: listed},
			in{http.MethodPost, `{"url":"https://example.com","fullPage":false}`},
			want{
				http.StatusCreated,
				`{"message":"Success","result":{"id":"screenshots/example.com/20240102030405-abcdef12.png","url":"https://assets.example.net/screenshots/example.com/20240102030405-abcdef12.png"}}`,
				1,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: listed},
			in{http.MethodPost, `{"url":`},
			want{
				http.StatusBadRequest,
				`{"message":"Error","error":{"kind":"validation","message":"invalid request"}}`,
				0,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: func(ctx context.Context, request publish.Request) (*storage.Asset, error) {
				return nil, &publish.Error{Kind: publish.KindCapture, Op: "capture https://example.com", Err: errors.New("browserType.launch: Executable doesn't exist at /root/.cache/ms-playwright")}
			}},
			&storageMock{fakeList: listed},
			in{http.MethodPost, `{"url":"https://example.com","fullPage":true}`},
			want{
				http.StatusBadRequest,
				`{"message":"Error","error":{"kind":"capture","message":"failed to capture the page"}}`,
				1,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: func(ctx context.Context, request publish.Request) (*storage.Asset, error) {
				return nil, &publish.ProxyError{StatusCode: http.StatusBadGateway, Payload: []byte(`{"message":"Error","error":{}}`)}
			}},
			&storageMock{fakeList: listed},
			in{http.MethodPost, `{"url":"https://example.com","fullPage":false}`},
			want{
				http.StatusBadGateway,
				`{"message":"Error","error":{}}`,
				1,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: func(ctx context.Context, request publish.Request) (*storage.Asset, error) {
				return nil, &publish.ProxyError{StatusCode: http.StatusBadGateway, Payload: []byte(`<html><body>Bad Gateway</body></html>`)}
			}},
			&storageMock{fakeList: listed},
			in{http.MethodPost, `{"url":"https://example.com","fullPage":false}`},
			want{
				http.StatusBadGateway,
				`{"message":"Error","error":{"kind":"proxy","message":"capture proxy returned an invalid error payload"}}`,
				1,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: listed},
			in{http.MethodDelete, ""},
			want{
				http.StatusMethodNotAllowed,
				`{"message":"Method not allowed"}`,
				0,
				0,
			},
		},
		{
			func() string {
				_, _, line, _ := runtime.Caller(1)
				return fmt.Sprintf("L%d", line)
			}(),
			&strategyMock{fakeCapture: published},
			&storageMock{fakeList: listed},
			in{http.MethodPut, `{"url":"https://example.com","fullPage":false}`},
			want{
				http.StatusMethodNotAllowed,
				`{"message":"Method not allowed"}`,
				0,
				0,
			},
		},
	}
	for _, tt := range tests {
		name := tt.name
		strategy := tt.strategy
		s := tt.storage
		in := tt.in
		want := tt.want
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			request := httptest.NewRequest(in.method, "/api/images", strings.NewReader(in.body))
			recorder := httptest.NewRecorder()

			routes.Images(strategy, s).ServeHTTP(recorder, request)

			if diff := cmp.Diff(want.statusCode, recorder.Code); diff != "" {
				t.Errorf("status code (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.body, recorder.Body.String()); diff != "" {
				t.Errorf("body (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff("application/json", recorder.Header().Get("Content-Type")); diff != "" {
				t.Errorf("content type (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.captureCalls, strategy.calls); diff != "" {
				t.Errorf("capture calls (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(want.listCalls, s.listCalls); diff != "" {
				t.Errorf("list calls (-want +got):\n%s", diff)
			}
		})
	}
}

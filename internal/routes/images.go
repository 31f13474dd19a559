package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"screenshot-publisher/internal/publish"
	"screenshot-publisher/internal/storage"
)

const maxRequestBodyBytes = 1 << 20

type Response struct {
	Message string     `json:"message"`
	Result  any        `json:"result,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Kind    publish.Kind `json:"kind"`
	Message string       `json:"message"`
}

func Images(strategy publish.Strategy, storageClient storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			assets, err := publish.List(r.Context(), storageClient)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, Response{Message: "Success", Result: assets})

		case http.MethodPost:
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
			if err != nil {
				writeError(w, &publish.Error{Kind: publish.KindValidation, Op: "read request body", Err: err})
				return
			}

			request, err := publish.DecodeRequest(body)
			if err != nil {
				writeError(w, err)
				return
			}

			asset, err := strategy.Capture(r.Context(), request)
			if err != nil {
				writeError(w, err)
				return
			}
			writeJSON(w, http.StatusCreated, Response{Message: "Success", Result: asset})

		default:
			writeJSON(w, http.StatusMethodNotAllowed, Response{Message: "Method not allowed"})
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	var proxyErr *publish.ProxyError
	if errors.As(err, &proxyErr) {
		slog.Error(fmt.Sprintf("proxy capture failed: %s", err))
		if !json.Valid(proxyErr.Payload) {
			writeJSON(w, proxyErr.StatusCode, Response{Message: "Error", Error: &ErrorBody{
				Kind:    publish.KindProxy,
				Message: "capture proxy returned an invalid error payload",
			}})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(proxyErr.StatusCode)
		_, _ = w.Write(proxyErr.Payload)
		return
	}

	body := &ErrorBody{Kind: "internal", Message: http.StatusText(http.StatusInternalServerError)}
	var publishErr *publish.Error
	if errors.As(err, &publishErr) {
		body = &ErrorBody{Kind: publishErr.Kind, Message: publishErr.Message()}
	}

	if body.Kind == publish.KindValidation {
		slog.Info(fmt.Sprintf("rejected request: %s", err))
	} else {
		slog.Error(fmt.Sprintf("request failed: %s", err))
	}

	writeJSON(w, http.StatusBadRequest, Response{Message: "Error", Error: body})
}

func writeJSON(w http.ResponseWriter, statusCode int, response Response) {
	b, err := json.Marshal(response)
	if err != nil {
		slog.Error(fmt.Sprintf("failed to marshal json: %s", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(b)
}

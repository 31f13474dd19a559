package publish

import (
	"errors"
	"fmt"

	"screenshot-publisher/internal/target"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindCapture    Kind = "capture"
	KindStorage    Kind = "storage"
	KindProxy      Kind = "proxy"
)

// Error is returned by every Strategy. Err keeps the full detail for logs,
// Message is what a client gets to see.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Message() string {
	switch e.Kind {
	case KindValidation:
		switch {
		case errors.Is(e.Err, target.ErrUnsupportedScheme):
			return "url scheme must be http or https"
		case errors.Is(e.Err, target.ErrForbiddenAddress):
			return "url points to a forbidden address"
		case errors.Is(e.Err, target.ErrUnresolvableHost):
			return "url host could not be resolved"
		case errors.Is(e.Err, target.ErrInvalidURL):
			return "url is not a valid absolute url"
		}
		return "invalid request"
	case KindCapture:
		return "failed to capture the page"
	case KindStorage:
		return "failed to reach the asset storage"
	case KindProxy:
		return "failed to reach the capture proxy"
	}
	return "internal error"
}

// ProxyError carries a non-2xx proxy response untouched.
type ProxyError struct {
	StatusCode int
	Payload    []byte
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("proxy responded with status %d: %s", e.StatusCode, e.Payload)
}

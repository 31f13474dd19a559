package capture

import (
	"context"
)

type Options struct {
	// Path is where the PNG is written.
	Path     string
	FullPage bool
}

type Capturer interface {
	// Capture renders url and writes the screenshot to options.Path.
	Capture(ctx context.Context, url string, options Options) error
}

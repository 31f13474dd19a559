package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"screenshot-publisher/internal/capture"
	"screenshot-publisher/internal/env"
	"screenshot-publisher/internal/publish"
	"screenshot-publisher/internal/server"
	"screenshot-publisher/internal/storage"
	"screenshot-publisher/internal/target"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
)

func newStorage(ctx context.Context, backend string, folder string) (storage.Storage, error) {
	switch backend {
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:        os.Getenv("S3_BUCKET"),
			Folder:        folder,
			EndpointURL:   os.Getenv("S3_ENDPOINT_URL"),
			URLMode:       storage.URLMode(env.OrDefault("S3_URL_MODE", string(storage.URLModePublic))),
			PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
			PresignedTTL:  env.OrDefault("S3_PRESIGNED_TTL", 15*time.Minute),
		})
	case "file":
		return storage.NewFileStorage(ctx, storage.FileConfig{
			Directory: env.OrDefault("DIRECTORY", "/tmp/screenshots"),
			Folder:    folder,
			BaseURL:   os.Getenv("FILE_BASE_URL"),
		})
	}
	return nil, xerrors.Errorf("unknown storage backend: %s", backend)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	var sandbox bool
	var proxyURL string
	var proxyTimeout time.Duration
	var storageBackend string
	var storageFolder string
	var transientDirectory string
	var allowPrivateNetworks bool
	var installBrowsers bool
	var chromeDevtoolsProtocolURL string
	var viewportWidth int
	var viewportHeight int
	var navigationTimeout time.Duration
	var delay time.Duration

	flag.BoolVar(&server.Debug, "debug", env.OrDefault("DEBUG", false), "Enable text logs and pprof endpoints")
	flag.BoolVar(&sandbox, "sandbox", env.OrDefault("IS_CODESANDBOX", false), "Delegate captures to the remote proxy instead of launching a browser")
	flag.StringVar(&proxyURL, "proxy-url", env.OrDefault("PROXY_URL", publish.DefaultProxyURL), "Proxy endpoint used in sandbox mode")
	flag.DurationVar(&proxyTimeout, "proxy-timeout", env.OrDefault("PROXY_TIMEOUT", 60*time.Second), "Timeout of a proxied capture")
	flag.StringVar(&storageBackend, "storage-backend", env.OrDefault("STORAGE_BACKEND", "s3"), "Storage backend (s3 or file)")
	flag.StringVar(&storageFolder, "storage-folder", env.OrDefault("STORAGE_FOLDER", "screenshots"), "Folder screenshots are published into")
	flag.StringVar(&transientDirectory, "transient-directory", env.OrDefault("TRANSIENT_DIRECTORY", "public/images"), "Directory holding screenshots between capture and upload")
	flag.BoolVar(&allowPrivateNetworks, "allow-private-networks", env.OrDefault("ALLOW_PRIVATE_NETWORKS", false), "Allow capturing loopback and private addresses")
	flag.BoolVar(&installBrowsers, "install-browsers", env.OrDefault("INSTALL_BROWSERS", false), "Download the playwright chromium build before serving")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", env.OrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.IntVar(&viewportWidth, "viewport-width", env.OrDefault("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", env.OrDefault("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.DurationVar(&navigationTimeout, "navigation-timeout", env.OrDefault("NAVIGATION_TIMEOUT", 30*time.Second), "Navigation timeout")
	flag.DurationVar(&delay, "delay", env.OrDefault("DELAY", time.Duration(0)), "Delay between navigation and capture")
	flag.Parse()

	logger, err := server.NewLogger()
	if err != nil {
		slog.Error("unable to create logger", "error", err)
		os.Exit(1)
	}
	entrypointLogger := logger.With("logger", "entrypoint")

	ctx := context.Background()

	s, err := newStorage(ctx, storageBackend, storageFolder)
	if err != nil {
		entrypointLogger.Error("unable to create storage backend", "error", err)
		os.Exit(1)
	}

	var strategy publish.Strategy
	if sandbox {
		entrypointLogger.Info("running in sandbox, captures are delegated", "proxy", proxyURL)
		strategy = publish.NewProxyDelegateCapture(publish.ProxyConfig{
			URL:     proxyURL,
			Timeout: proxyTimeout,
		})
	} else {
		if installBrowsers {
			if err := capture.Install(); err != nil {
				entrypointLogger.Error("unable to install browsers", "error", err)
				os.Exit(1)
			}
		}

		config := capture.DefaultPlaywrightConfig()
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
		if viewportWidth > 0 {
			config.ViewportWidth = viewportWidth
		}
		if viewportHeight > 0 {
			config.ViewportHeight = viewportHeight
		}
		if navigationTimeout > 0 {
			config.Timeout = navigationTimeout
		}
		config.Delay = delay

		local, err := publish.NewLocalBrowserCapture(capture.NewPlaywrightCapturer(config), s, target.NewGuard(allowPrivateNetworks), publish.LocalConfig{
			Directory: transientDirectory,
			Folder:    storageFolder,
		})
		if err != nil {
			entrypointLogger.Error("unable to create local capture", "error", err)
			os.Exit(1)
		}
		strategy = local
	}

	entrypointLogger.Info("starting server")
	if err := server.NewServer(strategy, s).Start(ctx); err != nil {
		entrypointLogger.Error("problem running server", "error", err)
		os.Exit(1)
	}
}

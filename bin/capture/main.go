package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"screenshot-publisher/internal/capture"
	"screenshot-publisher/internal/env"
	"screenshot-publisher/internal/publish"
	"screenshot-publisher/internal/storage"
	"screenshot-publisher/internal/target"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var directory string
	var folder string
	var transientDirectory string
	var fullPage bool
	var delay time.Duration
	var viewportWidth int
	var viewportHeight int
	var chromeDevtoolsProtocolURL string
	var allowPrivateNetworks bool
	var install bool
	flag.StringVar(&directory, "directory", env.OrDefault("DIRECTORY", "/tmp/screenshots"), "Output directory")
	flag.StringVar(&folder, "folder", env.OrDefault("STORAGE_FOLDER", "screenshots"), "Folder inside the output directory")
	flag.StringVar(&transientDirectory, "transient-directory", env.OrDefault("TRANSIENT_DIRECTORY", os.TempDir()), "Directory holding the screenshot before it is stored")
	flag.BoolVar(&fullPage, "full-page", env.OrDefault("FULL_PAGE", false), "Capture the full scrollable page instead of the viewport")
	flag.DurationVar(&delay, "delay", env.OrDefault("DELAY", time.Duration(0)), "Delay before capturing")
	flag.IntVar(&viewportWidth, "viewport-width", env.OrDefault("VIEWPORT_WIDTH", 1920), "Viewport width in pixels")
	flag.IntVar(&viewportHeight, "viewport-height", env.OrDefault("VIEWPORT_HEIGHT", 1080), "Viewport height in pixels")
	flag.StringVar(&chromeDevtoolsProtocolURL, "chrome-devtools-protocol-url", env.OrDefault("CHROME_DEVTOOLS_PROTOCOL_URL", ""), "Connect to existing browser via Chrome DevTools Protocol URL (e.g., http://localhost:9222)")
	flag.BoolVar(&allowPrivateNetworks, "allow-private-networks", env.OrDefault("ALLOW_PRIVATE_NETWORKS", true), "Allow capturing loopback and private addresses")
	flag.BoolVar(&install, "install", false, "Download the playwright chromium build first")

	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		log.Fatalf("url not specified")
	}
	url := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if install {
		if err := capture.Install(); err != nil {
			log.Fatalf("Failed to install browsers: %v", err)
		}
	}

	s, err := storage.NewFileStorage(ctx, storage.FileConfig{
		Directory: directory,
		Folder:    folder,
	})
	if err != nil {
		log.Fatalf("Failed to create storage backend: %v", err)
	}

	config := capture.DefaultPlaywrightConfig()
	config.Delay = delay
	if chromeDevtoolsProtocolURL != "" {
		config.ChromeDevtoolsProtocolURL = chromeDevtoolsProtocolURL
	}
	if display := os.Getenv("DISPLAY"); display != "" {
		config.Headless = false
	}
	if viewportWidth > 0 {
		config.ViewportWidth = viewportWidth
	}
	if viewportHeight > 0 {
		config.ViewportHeight = viewportHeight
	}

	strategy, err := publish.NewLocalBrowserCapture(capture.NewPlaywrightCapturer(config), s, target.NewGuard(allowPrivateNetworks), publish.LocalConfig{
		Directory: transientDirectory,
		Folder:    folder,
	})
	if err != nil {
		log.Fatalf("Failed to create capturer: %v", err)
	}

	asset, err := strategy.Capture(ctx, publish.Request{URL: url, FullPage: fullPage})
	if err != nil {
		log.Fatalf("Failed to capture screenshot: %v", err)
	}

	if err := json.NewEncoder(os.Stdout).Encode(asset); err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
}

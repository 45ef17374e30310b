package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera"
	"github.com/intothevoid/prodcam/pkg/camera/gocvcam"
	"github.com/intothevoid/prodcam/pkg/config"
	"github.com/intothevoid/prodcam/pkg/permission"
	"github.com/intothevoid/prodcam/pkg/session"
	"github.com/intothevoid/prodcam/pkg/ui"
	"github.com/intothevoid/prodcam/pkg/web"
)

func main() {
	configPath := flag.String("config", "configs/prodcam.yaml", "path to the YAML config file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	webAddr := flag.String("web", "", "serve the HTTP API on this address (overrides config)")
	facing := flag.String("facing", config.FacingBack, "lens facing to open (back, front, external)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *webAddr != "" {
		cfg.Web.Enabled = true
		cfg.Web.Addr = *webAddr
	}
	log.Init(cfg.LogLevel)

	lens, err := camera.ParseLensFacing(*facing)
	if err != nil {
		log.Error("invalid facing", "error", err)
		os.Exit(1)
	}

	// 1. Camera backend
	manager, err := gocvcam.NewManager(cfg.Cameras)
	if err != nil {
		log.Error("camera manager", "error", err)
		os.Exit(1)
	}

	// 2. Setup the Fyne UI App
	myApp := app.New()
	window := myApp.NewWindow(cfg.Window.Title)

	previewView := ui.NewPreviewView()
	stillView := ui.NewStillView(cfg.Still.Width, cfg.Still.Height)
	stateLabel := widget.NewLabel(session.StateIdle)
	store := permission.NewStore(permission.DeviceAccess(""))

	// 3. Session controller; the prompt reports back into it
	var ctrl *session.Controller
	prompt := ui.NewPermissionPrompt(window, store, func(code int, perms []permission.Permission, grants []permission.Grant) {
		ctrl.OnRequestPermissionsResult(code, perms, grants)
	})
	ctrl, err = session.New(session.Deps{
		Manager:     manager,
		Permissions: store,
		Requester:   prompt,
		Preview:     previewView,
		Still:       stillView,
		Notifier:    ui.NewNotifier(window, cfg.Window.Title),
		UI:          fyne.Do,
	}, session.Options{
		Facing:           lens,
		StillSize:        camera.Size{Width: cfg.Still.Width, Height: cfg.Still.Height},
		MaxImages:        cfg.Still.MaxImages,
		JPEGQuality:      cfg.Still.JPEGQuality,
		OpenTimeout:      cfg.OpenTimeout(),
		ConfigureTimeout: cfg.ConfigureTimeout(),
	})
	if err != nil {
		log.Error("create session", "error", err)
		os.Exit(1)
	}
	ctrl.OnStateChange(func(state string) {
		fyne.Do(func() { stateLabel.SetText(state) })
	})

	captureButton := widget.NewButton("Capture", func() {
		if err := ctrl.CaptureStill(); err != nil {
			log.Warn("capture", "error", err)
		}
	})

	// 4. Optional HTTP API
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Web.Enabled {
		srv := web.NewServer(cfg.Web.Addr, ctrl)
		ctrl.OnStateChange(srv.Publish)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error("web server", "error", err)
			}
		}()
	}

	// 5. Layout and Run
	sidebar := container.NewVBox(stillView, captureButton, layout.NewSpacer(), stateLabel)
	split := container.NewHSplit(previewView, sidebar)
	split.Offset = 0.75

	window.SetContent(split)
	window.Resize(fyne.NewSize(cfg.Window.Width, cfg.Window.Height))
	window.SetOnClosed(func() {
		cancel()
		ctrl.Stop()
	})

	ctrl.Start()
	ctrl.Resume()
	window.ShowAndRun()
}

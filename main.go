// Command main is a bare preview window: it opens one camera through the
// single-call preview API and shows frames until the window closes.
package main

import (
	"flag"
	"fmt"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"github.com/intothevoid/prodcam/internal/log"
	"github.com/intothevoid/prodcam/pkg/camera/gocvcam"
	"github.com/intothevoid/prodcam/pkg/config"
	"github.com/intothevoid/prodcam/pkg/preview"
	"github.com/intothevoid/prodcam/pkg/ui"
)

func main() {
	configPath := flag.String("config", "configs/prodcam.yaml", "path to the YAML config file")
	cameraID := flag.String("camera", "", "camera id from the config (default: first)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log.Init(cfg.LogLevel)

	cc := cfg.Cameras[0]
	if *cameraID != "" {
		found := false
		for _, c := range cfg.Cameras {
			if c.ID == *cameraID {
				cc, found = c, true
				break
			}
		}
		if !found {
			log.Error("unknown camera", "camera", *cameraID)
			os.Exit(1)
		}
	}

	cam, err := gocvcam.OpenLegacy(cc)
	if err != nil {
		log.Error("open camera", "camera", cc.ID, "error", err)
		os.Exit(1)
	}
	defer cam.Close()

	myApp := app.New()
	window := myApp.NewWindow(cfg.Window.Title + " preview")

	view := ui.NewPreviewView()
	preview.New(cam, view)

	window.SetContent(view)
	window.Resize(fyne.NewSize(float32(cc.Width), float32(cc.Height)))
	window.ShowAndRun()
}

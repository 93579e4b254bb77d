package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/shortontech/gosniff/internal/collect"
	"github.com/shortontech/gosniff/internal/report"
	"github.com/shortontech/gosniff/internal/signal"
)

// sampleReport builds a synthetic probe submission resembling a Linux
// automation session, so every classifier has something to chew on.
func sampleReport() *signal.RawReport {
	platform := "Linux x86_64"
	ua := "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	tz := "America/New_York"
	webdriver := false
	plugins := 5
	perm := "default"
	dnt := false
	push := true
	arial := 18
	hw := 8
	mem := 8.0
	touch := 0
	cookies := true
	mouse := 15
	firstClick := 2200.0

	return &signal.RawReport{
		Platform:               &platform,
		UserAgent:              &ua,
		UABrands:               []string{"Chromium", "Google Chrome", "Not-A.Brand"},
		Languages:              []string{"en-US", "en"},
		Timezone:               &tz,
		Webdriver:              &webdriver,
		AutomationMarkers:      []string{},
		PluginCount:            &plugins,
		NotificationPermission: &perm,
		DoNotTrack:             &dnt,
		PushNotification:       &push,
		FontList:               []string{"Arial"},
		ArialBoundingHeight:    &arial,
		Canvas: &signal.RawCanvas{
			Supported:       true,
			Winding:         true,
			Geometry:        "data:image/png;base64,probe-render",
			Text:            "data:image/png;base64,probe-render",
			FingerprintData: "data:image/png;base64,probe-text-arc",
		},
		WebGL: &signal.RawWebGL{
			Supported: true,
			Vendor:    "Google Inc. (NVIDIA)",
			Renderer:  "ANGLE (NVIDIA GeForce GTX 1080)",
		},
		Monochrome:          &signal.RawMonochrome{Min: 0, Max: 0},
		HardwareConcurrency: &hw,
		DeviceMemory:        &mem,
		MaxTouchPoints:      &touch,
		CookieEnabled:       &cookies,
		MouseEventCount:     &mouse,
		FirstClickTimeMs:    &firstClick,
		WebRTC: &signal.RawWebRTC{
			Supported:      true,
			CandidateTypes: []string{"host", "srflx"},
		},
	}
}

// runTestMode pushes a synthetic report through the full pipeline and prints
// the assembled payload.
func runTestMode(collector *collect.Collector, assembler *report.Assembler, emit func(report.Payload)) {
	log.Println("TEST MODE: running pipeline against a synthetic report...")

	bag := collector.Collect(context.Background(), sampleReport(), "")
	payload := assembler.AssembleSafe(bag, "test-order")

	emit(payload)

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Printf("TEST MODE: failed to render payload: %v", err)
		return
	}
	log.Printf("TEST MODE: assembled payload:\n%s", out)
}

package signal

import (
	"encoding/base64"
	"regexp"
)

// RawReport is the reading set submitted by the in-page probe. Pointer and
// nil-slice fields distinguish "probe could not read this" from a legitimate
// zero value; an explicitly empty slice is a real observation.
type RawReport struct {
	Platform               *string        `json:"platform"`
	UserAgent              *string        `json:"user_agent"`
	UABrands               []string       `json:"ua_brands"`
	Languages              []string       `json:"languages"`
	Timezone               *string        `json:"timezone"`
	Webdriver              *bool          `json:"webdriver"`
	AutomationMarkers      []string       `json:"automation_markers"`
	PluginCount            *int           `json:"plugin_count"`
	NotificationPermission *string        `json:"notification_permission"`
	DoNotTrack             *bool          `json:"do_not_track"`
	PushNotification       *bool          `json:"push_notification"`
	FontList               []string       `json:"font_list"`
	ArialBoundingHeight    *int           `json:"arial_bounding_height"`
	Canvas                 *RawCanvas     `json:"canvas"`
	Audio                  *RawAudio      `json:"audio"`
	WebGL                  *RawWebGL      `json:"webgl"`
	Monochrome             *RawMonochrome `json:"monochrome"`
	HardwareConcurrency    *int           `json:"hardware_concurrency"`
	DeviceMemory           *float64       `json:"device_memory"`
	MaxTouchPoints         *int           `json:"max_touch_points"`
	CookieEnabled          *bool          `json:"cookie_enabled"`
	MouseEventCount        *int           `json:"mouse_event_count"`
	FirstClickTimeMs       *float64       `json:"first_click_time_ms"`
	WebRTC                 *RawWebRTC     `json:"webrtc"`
}

// RawCanvas holds the winding check plus two successive renders of the same
// canvas. Geometry and Text are the full data URLs; the normalizer reduces
// them to payload hashes, or to the Unstable sentinel when they disagree.
type RawCanvas struct {
	Supported       bool   `json:"supported"`
	Skipped         bool   `json:"skipped"`
	Winding         bool   `json:"winding"`
	Geometry        string `json:"geometry"`
	Text            string `json:"text"`
	FingerprintData string `json:"fingerprint_data"` // separate text/arc render
}

// RawAudio holds the offline-rendered sample buffer, base64-encoded.
type RawAudio struct {
	Supported        bool   `json:"supported"`
	SampleData       string `json:"sample_data"`
	MaxChannels      int    `json:"max_channels"`
	ChannelCountMode string `json:"channel_count_mode"`
}

type RawWebGL struct {
	Supported bool   `json:"supported"`
	Vendor    string `json:"vendor"`
	Renderer  string `json:"renderer"`
	Version   string `json:"version"`
}

type RawMonochrome struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type RawWebRTC struct {
	Supported      bool     `json:"supported"`
	CandidateTypes []string `json:"candidate_types"`
	IPs            []string `json:"ips"`
}

var softwareRendererRx = regexp.MustCompile(`(?i)swiftshader|llvmpipe|mesa`)

// NormalizeReport converts a raw probe submission into typed signals covering
// every client-side category. A nil report yields absent sentinels for all of
// them; geolocation is resolved separately by the collector.
func NormalizeReport(raw *RawReport) []Signal {
	b := NewBuilder()
	if raw == nil {
		raw = &RawReport{}
	}

	setStr(b, KeyPlatform, raw.Platform)
	setStr(b, KeyUserAgent, raw.UserAgent)
	setStrs(b, KeyUABrands, raw.UABrands)
	setStrs(b, KeyLanguages, raw.Languages)
	setStr(b, KeyTimezone, raw.Timezone)
	setBool(b, KeyWebdriver, raw.Webdriver)
	setStrs(b, KeyAutomationMarkers, raw.AutomationMarkers)
	setInt(b, KeyPluginCount, raw.PluginCount)
	setStr(b, KeyNotificationPermission, raw.NotificationPermission)
	setBool(b, KeyDoNotTrack, raw.DoNotTrack)
	setBool(b, KeyPushNotification, raw.PushNotification)
	setStrs(b, KeyFontList, raw.FontList)
	setInt(b, KeyArialBoundingHeight, raw.ArialBoundingHeight)

	normalizeCanvas(b, raw.Canvas)
	normalizeAudio(b, raw.Audio)
	normalizeWebGL(b, raw.WebGL)

	if raw.Monochrome != nil {
		b.Set(KeyMonochromeMin, raw.Monochrome.Min)
		b.Set(KeyMonochromeMax, raw.Monochrome.Max)
	} else {
		b.SetAbsent(KeyMonochromeMin)
		b.SetAbsent(KeyMonochromeMax)
	}

	setInt(b, KeyHardwareConcurrency, raw.HardwareConcurrency)
	setFloat(b, KeyDeviceMemory, raw.DeviceMemory)
	setInt(b, KeyMaxTouchPoints, raw.MaxTouchPoints)
	setBool(b, KeyCookieEnabled, raw.CookieEnabled)
	setInt(b, KeyMouseEventCount, raw.MouseEventCount)
	setFloat(b, KeyFirstClickTimeMs, raw.FirstClickTimeMs)

	if raw.WebRTC != nil {
		b.Set(KeyWebRTCCandidateTypes, WebRTCInfo{
			Supported:      raw.WebRTC.Supported,
			CandidateTypes: emptyIfNil(raw.WebRTC.CandidateTypes),
			IPs:            emptyIfNil(raw.WebRTC.IPs),
		})
	} else {
		b.SetAbsent(KeyWebRTCCandidateTypes)
	}

	sigs := make([]Signal, 0, len(b.signals))
	for _, key := range Keys() {
		if s, ok := b.signals[key]; ok {
			sigs = append(sigs, s)
		}
	}
	return sigs
}

// normalizeCanvas reduces the two renders to fixed-width hashes. Disagreeing
// renders are recorded as the Unstable sentinel for both, never silently
// collapsed onto one of them.
func normalizeCanvas(b *Builder, c *RawCanvas) {
	if c == nil {
		b.SetAbsent(KeyCanvasWinding)
		b.SetAbsent(KeyUnstableCanvasGeometry)
		b.SetAbsent(KeyUnstableCanvasText)
		b.SetAbsent(KeyCanvasHash)
		return
	}
	b.Set(KeyCanvasWinding, c.Winding)
	switch {
	case !c.Supported:
		b.Set(KeyUnstableCanvasGeometry, Unsupported)
		b.Set(KeyUnstableCanvasText, Unsupported)
	case c.Skipped:
		b.Set(KeyUnstableCanvasGeometry, Skipped)
		b.Set(KeyUnstableCanvasText, Skipped)
	case c.Geometry != c.Text:
		b.Set(KeyUnstableCanvasGeometry, Unstable)
		b.Set(KeyUnstableCanvasText, Unstable)
	default:
		b.Set(KeyUnstableCanvasGeometry, HashString(c.Geometry))
		b.Set(KeyUnstableCanvasText, HashString(c.Text))
	}
	if c.FingerprintData != "" {
		b.Set(KeyCanvasHash, HashString(c.FingerprintData))
	} else {
		b.SetAbsent(KeyCanvasHash)
	}
}

func normalizeAudio(b *Builder, a *RawAudio) {
	if a == nil || !a.Supported {
		b.SetAbsent(KeyAudioHash)
		b.SetAbsent(KeyAudioMaxChannels)
		return
	}
	samples, err := base64.StdEncoding.DecodeString(a.SampleData)
	if err != nil || len(samples) == 0 {
		b.SetAbsent(KeyAudioHash)
	} else {
		b.Set(KeyAudioHash, HashPayload(samples))
	}
	b.Set(KeyAudioMaxChannels, a.MaxChannels)
}

func normalizeWebGL(b *Builder, gl *RawWebGL) {
	if gl == nil {
		b.SetAbsent(KeyWebGLSupported)
		b.SetAbsent(KeyWebGLVendor)
		b.SetAbsent(KeyWebGLRenderer)
		b.SetAbsent(KeyWebGLDriverType)
		return
	}
	b.Set(KeyWebGLSupported, gl.Supported)
	if !gl.Supported {
		b.SetAbsent(KeyWebGLVendor)
		b.SetAbsent(KeyWebGLRenderer)
		b.SetAbsent(KeyWebGLDriverType)
		return
	}
	b.Set(KeyWebGLVendor, gl.Vendor)
	b.Set(KeyWebGLRenderer, gl.Renderer)
	if softwareRendererRx.MatchString(gl.Renderer) {
		b.Set(KeyWebGLDriverType, "software")
	} else {
		b.Set(KeyWebGLDriverType, "hardware")
	}
}

func setStr(b *Builder, key string, v *string) {
	if v == nil {
		b.SetAbsent(key)
		return
	}
	b.Set(key, *v)
}

func setBool(b *Builder, key string, v *bool) {
	if v == nil {
		b.SetAbsent(key)
		return
	}
	b.Set(key, *v)
}

func setInt(b *Builder, key string, v *int) {
	if v == nil {
		b.SetAbsent(key)
		return
	}
	b.Set(key, *v)
}

func setFloat(b *Builder, key string, v *float64) {
	if v == nil {
		b.SetAbsent(key)
		return
	}
	b.Set(key, *v)
}

func setStrs(b *Builder, key string, v []string) {
	if v == nil {
		b.SetAbsent(key)
		return
	}
	b.Set(key, v)
}

func emptyIfNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

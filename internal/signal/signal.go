// Package signal turns raw, possibly-missing environment readings into a
// uniform typed record set. Every known category gets exactly one Signal in
// the sealed bag; a reading the host could not supply is recorded with
// Present=false and a defined default instead of being omitted.
package signal

// Tier buckets detection signals by diagnostic strength.
type Tier string

const (
	TierHard   Tier = "hard"
	TierMedium Tier = "medium"
	TierSoft   Tier = "soft"
)

// Sentinel values for render probes. "Unstable" means two calls to the same
// rendering primitive disagreed on output, which is itself a signal.
const (
	Unsupported = "Unsupported"
	Unstable    = "Unstable"
	Skipped     = "Skipped"
)

// Signal is a single named, typed observation about the execution environment.
type Signal struct {
	Key     string `json:"key"`
	Value   any    `json:"value"`
	Tier    Tier   `json:"tier"`
	Present bool   `json:"present"`
}

// Signal category keys. The declaration order of the schema below is the
// canonical serialization order for fingerprinting; do not reorder casually.
const (
	KeyPlatform               = "platform"
	KeyUserAgent              = "userAgent"
	KeyUABrands               = "uaBrands"
	KeyLanguages              = "languages"
	KeyTimezone               = "timezone"
	KeyWebdriver              = "webdriver"
	KeyAutomationMarkers      = "automationMarkers"
	KeyPluginCount            = "pluginCount"
	KeyNotificationPermission = "notificationPermission"
	KeyDoNotTrack             = "doNotTrack"
	KeyPushNotification       = "pushNotification"
	KeyFontList               = "fontList"
	KeyArialBoundingHeight    = "arialBoundingHeight"
	KeyCanvasWinding          = "canvasWinding"
	KeyUnstableCanvasGeometry = "unstableCanvasGeometry"
	KeyUnstableCanvasText     = "unstableCanvasText"
	KeyCanvasHash             = "canvasHash"
	KeyAudioHash              = "audioHash"
	KeyAudioMaxChannels       = "audioMaxChannels"
	KeyWebGLSupported         = "webglSupported"
	KeyWebGLVendor            = "webglVendor"
	KeyWebGLRenderer          = "webglRenderer"
	KeyWebGLDriverType        = "webglDriverType"
	KeyMonochromeMin          = "monochromeMin"
	KeyMonochromeMax          = "monochromeMax"
	KeyHardwareConcurrency    = "hardwareConcurrency"
	KeyDeviceMemory           = "deviceMemory"
	KeyMaxTouchPoints         = "maxTouchPoints"
	KeyCookieEnabled          = "cookieEnabled"
	KeyMouseEventCount        = "mouseEventCount"
	KeyFirstClickTimeMs       = "firstClickTimeMs"
	KeyPublicIPGeo            = "publicIpGeo"
	KeyWebRTCCandidateTypes   = "webrtcCandidateTypes"
)

// GeoInfo is the resolved public-IP geolocation/organization record.
type GeoInfo struct {
	IP       string `json:"ip"`
	Country  string `json:"country"`
	Region   string `json:"region"`
	City     string `json:"city"`
	Timezone string `json:"timezone"`
	ASN      string `json:"asn"`
	Org      string `json:"org"`
	VPN      bool   `json:"vpn"`
	Proxy    bool   `json:"proxy"`
	Tor      bool   `json:"tor"`
	Hosting  bool   `json:"hosting"`
}

// WebRTCInfo carries the ICE candidate composition observed by the client.
type WebRTCInfo struct {
	Supported      bool     `json:"supported"`
	CandidateTypes []string `json:"candidate_types"`
	IPs            []string `json:"ips"`
}

type schemaEntry struct {
	Key     string
	Tier    Tier
	Default func() any
}

// schema declares every known signal category, its tier and its absent
// default, in canonical serialization order.
var schema = []schemaEntry{
	{KeyPlatform, TierMedium, func() any { return "" }},
	{KeyUserAgent, TierHard, func() any { return "" }},
	{KeyUABrands, TierMedium, func() any { return []string{} }},
	{KeyLanguages, TierMedium, func() any { return []string{} }},
	{KeyTimezone, TierSoft, func() any { return "" }},
	{KeyWebdriver, TierHard, func() any { return false }},
	{KeyAutomationMarkers, TierHard, func() any { return []string{} }},
	{KeyPluginCount, TierMedium, func() any { return 0 }},
	{KeyNotificationPermission, TierMedium, func() any { return "" }},
	{KeyDoNotTrack, TierMedium, func() any { return false }},
	{KeyPushNotification, TierSoft, func() any { return false }},
	{KeyFontList, TierMedium, func() any { return []string{} }},
	{KeyArialBoundingHeight, TierMedium, func() any { return 0 }},
	{KeyCanvasWinding, TierSoft, func() any { return false }},
	{KeyUnstableCanvasGeometry, TierMedium, func() any { return Unsupported }},
	{KeyUnstableCanvasText, TierMedium, func() any { return Unsupported }},
	{KeyCanvasHash, TierSoft, func() any { return "" }},
	{KeyAudioHash, TierSoft, func() any { return "" }},
	{KeyAudioMaxChannels, TierSoft, func() any { return 0 }},
	{KeyWebGLSupported, TierMedium, func() any { return false }},
	{KeyWebGLVendor, TierMedium, func() any { return "" }},
	{KeyWebGLRenderer, TierMedium, func() any { return "" }},
	{KeyWebGLDriverType, TierMedium, func() any { return "" }},
	{KeyMonochromeMin, TierSoft, func() any { return 0 }},
	{KeyMonochromeMax, TierSoft, func() any { return 0 }},
	{KeyHardwareConcurrency, TierSoft, func() any { return 0 }},
	{KeyDeviceMemory, TierSoft, func() any { return 0.0 }},
	{KeyMaxTouchPoints, TierSoft, func() any { return 0 }},
	{KeyCookieEnabled, TierSoft, func() any { return false }},
	{KeyMouseEventCount, TierSoft, func() any { return 0 }},
	{KeyFirstClickTimeMs, TierSoft, func() any { return 0.0 }},
	{KeyPublicIPGeo, TierSoft, func() any { return GeoInfo{} }},
	{KeyWebRTCCandidateTypes, TierSoft, func() any {
		return WebRTCInfo{CandidateTypes: []string{}, IPs: []string{}}
	}},
}

var schemaByKey = func() map[string]schemaEntry {
	m := make(map[string]schemaEntry, len(schema))
	for _, e := range schema {
		m[e.Key] = e
	}
	return m
}()

// Keys returns every known signal key in canonical schema order.
func Keys() []string {
	out := make([]string, len(schema))
	for i, e := range schema {
		out[i] = e.Key
	}
	return out
}

// KnownKey reports whether key is a declared signal category.
func KnownKey(key string) bool {
	_, ok := schemaByKey[key]
	return ok
}

func tierOf(key string) Tier {
	if e, ok := schemaByKey[key]; ok {
		return e.Tier
	}
	return TierSoft
}

func defaultOf(key string) any {
	if e, ok := schemaByKey[key]; ok {
		return e.Default()
	}
	return nil
}

package classify

// Fixed weight tables, reference constants and thresholds. The magic values
// (bounding height 80, click time 1050ms, mouse events 10) are carried over
// from recorded tool behavior; changing them requires labeled ground truth.

// Driver labels. driverCandidates is the canonical enumeration order used for
// vote initialization and argmax tie-breaking.
const (
	DriverNodriver           = "nodriver"
	DriverSelenium           = "selenium"
	DriverSeleniumBase       = "seleniumbase"
	DriverPatchright         = "patchright"
	DriverPuppeteerExtra     = "puppeteerextra"
	DriverZendriver          = "zendriver"
	DriverCamoufox           = "camoufox"
	DriverSeleniumDriverless = "seleniumdriverless"
)

var driverCandidates = []string{
	DriverNodriver,
	DriverSelenium,
	DriverSeleniumBase,
	DriverPatchright,
	DriverPuppeteerExtra,
	DriverZendriver,
	DriverCamoufox,
}

// Candidates that get a vote when the platform reports a Linux family.
var linuxFamilyCandidates = []string{
	DriverSeleniumBase,
	DriverZendriver,
	DriverPatchright,
	DriverNodriver,
	DriverSelenium,
}

// The "driver-less" family subject to behavioral refinement.
var driverlessFamily = map[string]bool{
	DriverNodriver:           true,
	DriverSeleniumDriverless: true,
	DriverZendriver:          true,
}

// Reference hashes for camoufox's stable canvas text rendering, recorded from
// known camoufox sessions. An exact pair match is unambiguous.
const (
	camoufoxCanvasGeometry = "fee0bf34"
	camoufoxCanvasText     = "fc1b6a79"
)

const (
	arialBoundingHeightMax   = 80   // anything taller is camoufox's font stack
	interactiveMouseEventMin = 10   // more movement events than any replay tool emits
	earlyClickThresholdMs    = 1050 // nodriver clicks before a human could
	referenceLanguage        = "en"
)

// Bot labels.
const (
	BotLikelyAutomation    = "likely_automation"
	BotSuspectedAutomation = "suspected_automation"
	BotHumanOrUnknown      = "human_or_unknown"
)

const (
	botLikelyThreshold    = 6
	botSuspectedThreshold = 3
	botConfidenceDivisor  = 10.0
)

// Hard-tier weights, ordered by diagnostic strength.
const (
	weightWebdriverFlag   = 5
	weightHeadlessUA      = 4
	weightFrameworkMarker = 3
	weightEmbeddedShell   = 2
)

// Proxy/VPN labels.
const (
	ProxyProbable  = "probable"
	ProxySuspected = "suspected"
	ProxyNone      = "none"
)

const (
	proxyProbableThreshold  = 6
	proxySuspectedThreshold = 3
	proxyConfidenceDivisor  = 8.0

	weightGeoVPN           = 5
	weightGeoProxy         = 4
	weightGeoTor           = 6
	weightGeoHosting       = 3
	weightHostingOrg       = 2
	weightTimezoneMismatch = 1
	weightLanguageGeo      = 1
	weightRelayOnlyICE     = 1
)

// ASN/org fragments of hosting and cloud providers. Residential traffic does
// not originate from these networks.
var hostingOrgFragments = []string{
	"amazon",
	"aws",
	"google cloud",
	"google llc",
	"microsoft",
	"azure",
	"digitalocean",
	"ovh",
	"hetzner",
	"linode",
	"akamai",
	"vultr",
	"choopa",
	"alibaba",
	"tencent",
	"oracle",
	"contabo",
	"leaseweb",
	"m247",
	"datacamp",
	"colocrossing",
	"hostinger",
	"scaleway",
}

// Countries implied by a declared primary language subtag, for the
// language/geo mismatch check. Region subtags in the declared list take
// precedence over this table.
var languageCountries = map[string][]string{
	"en": {"US", "GB", "AU", "CA", "NZ", "IE"},
	"de": {"DE", "AT", "CH"},
	"fr": {"FR", "BE", "CH", "CA"},
	"es": {"ES", "MX", "AR", "CO", "CL"},
	"pt": {"PT", "BR"},
	"it": {"IT", "CH"},
	"nl": {"NL", "BE"},
	"pl": {"PL"},
	"ru": {"RU", "BY", "KZ"},
	"tr": {"TR"},
	"ja": {"JP"},
	"ko": {"KR"},
	"zh": {"CN", "TW", "HK", "SG"},
	"ar": {"SA", "AE", "EG"},
	"hi": {"IN"},
	"vi": {"VN"},
	"th": {"TH"},
	"id": {"ID"},
	"sv": {"SE"},
	"no": {"NO"},
	"da": {"DK"},
	"fi": {"FI"},
	"cs": {"CZ"},
	"uk": {"UA"},
}

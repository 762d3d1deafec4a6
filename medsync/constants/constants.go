package constants

const FHIRJSONContentType = "application/fhir+json"

const MetadataPath = "metadata"

const RequestIDHeader = "X-Request-ID"

// Default client settings, overridable through conf.
const (
	DefaultTimeoutMS   = 30000
	DefaultRetryMax    = 3
	DefaultRetryWaitMS = 1000
)

// Environment variables read by the CLI and client defaults.
const (
	EnvServerURL = "FHIR_SERVER_URL"
	EnvOrgID     = "MEDSYNC_ORG_ID"
	EnvTimeoutMS = "FHIR_TIMEOUT_MS"
	EnvAuthToken = "FHIR_BEARER_TOKEN"
)

// This is set during compilation.
var Version = "latest"

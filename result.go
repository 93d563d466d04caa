package appforge

// Result is the payload handed to the caller when a deployment run
// finishes. It is the contract between the pipeline engine and the
// result screen; the engine only guarantees shape, not provenance.
type Result struct {
	LiveURL    string
	SourceRepo string
	ConfigRepo string
	Services   []string
	Status     string
}

// IsLive reports whether the run ended with a routable deployment.
func (r Result) IsLive() bool {
	return r.Status == StatusLive && r.LiveURL != ""
}

// Result status labels.
const (
	StatusLive = "live"
)

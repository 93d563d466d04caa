package pipeline

import "appforge"

// ResultBuilder synthesizes the completion payload for a finished run.
// The engine treats it as an opaque strategy so a real deployment backend
// can replace the simulation without touching sequencing.
type ResultBuilder interface {
	Build(prompt string) appforge.Result
}

// StaticBuilder returns the same Result for every run, ignoring the
// prompt. This is the simulation's stand-in for a real integration.
type StaticBuilder struct {
	Result appforge.Result
}

func (b StaticBuilder) Build(string) appforge.Result { return b.Result }

// DefaultResult is the built-in payload used when no config overrides it.
func DefaultResult() appforge.Result {
	return appforge.Result{
		LiveURL:    "https://my-app.appforge.dev",
		SourceRepo: "github.com/appforge-apps/my-app",
		ConfigRepo: "github.com/appforge-apps/my-app-config",
		Services:   []string{"frontend", "api", "worker", "postgres"},
		Status:     appforge.StatusLive,
	}
}

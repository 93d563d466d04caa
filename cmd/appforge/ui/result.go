package ui

import (
	"strings"

	"appforge"
)

// ResultView renders the final deployment summary screen.
func ResultView(r appforge.Result) string {
	var sb strings.Builder

	if r.IsLive() {
		sb.WriteString(SuccessMsg("Your app is live") + "\n\n")
	} else {
		sb.WriteString(InfoMsg("Deployment finished (%s)", r.Status) + "\n\n")
	}

	sb.WriteString(KeyValues("  ",
		KV("Live URL", Accent(r.LiveURL)),
		KV("Source", r.SourceRepo),
		KV("Config", r.ConfigRepo),
		KV("Services", strings.Join(r.Services, ", ")),
		KV("Status", r.Status),
	))
	return sb.String()
}

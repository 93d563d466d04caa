package main

import (
	"fmt"
	"os"

	createcmd "appforge/cmd/appforge/create"
	stepscmd "appforge/cmd/appforge/steps"
	"appforge/cmd/appforge/ui"
	"appforge/internal/logging"
	"appforge/internal/support/buildinfo"

	"github.com/spf13/cobra"
)

func main() {
	var (
		debug   bool
		noInput bool
	)
	if err := logging.Configure(logging.LevelWarn); err != nil {
		_, _ = os.Stderr.WriteString("configure logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "appforge",
		Short:         "Describe an app, watch it deploy",
		Version:       buildinfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelWarn
			if debug {
				level = logging.LevelDebug
			}
			if err := logging.Configure(level); err != nil {
				return err
			}
			ui.ConfigureInteraction(noInput)
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&noInput, "no-input", false, "Disable interactive prompts and animations")

	root.AddCommand(createcmd.Cmd())
	root.AddCommand(stepscmd.Cmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorMsg("%v", err))
		os.Exit(1)
	}
}

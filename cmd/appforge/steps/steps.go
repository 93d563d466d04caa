// Package stepscmd implements "appforge steps".
package stepscmd

import (
	"fmt"
	"strconv"

	"appforge/cmd/appforge/ui"
	"appforge/config"

	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "Show the deployment steps a run will execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, catalog.Len())
			for i, step := range catalog.Steps() {
				rows = append(rows, []string{
					strconv.Itoa(i + 1),
					step.Message,
					step.Detail,
					step.Duration.String(),
				})
			}

			fmt.Println(ui.Table([]string{"#", "Step", "Detail", "Duration"}, rows))
			return nil
		},
	}
}

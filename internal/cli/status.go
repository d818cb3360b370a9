package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт команду status: живое состояние кластера.
func NewStatusCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show live cluster state per stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := f.Output()

			orch, cleanup, err := f.Orchestrator(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			reports, err := orch.Status(ctx)
			if err != nil {
				return err
			}

			headers := []string{"STAGE", "RESOURCES", "READY"}
			rows := make([][]string, len(reports))
			for i, r := range reports {
				rows[i] = []string{
					string(r.Stage),
					fmt.Sprintf("%d/%d", r.Present, r.Total),
					strconv.FormatBool(r.Ready),
				}
			}

			out.Print(headers, rows, reports)
			return nil
		},
	}
}

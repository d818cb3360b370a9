package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewDestroyCmd создаёт команду destroy: удаление всех ресурсов плана.
func NewDestroyCmd(f *Factory) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete all plan resources from the cluster",
		Long: `Delete all plan resources in reverse topological order.
The namespace and NFS data (Retain policy) are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("destroy is irreversible, re-run with --yes to confirm")
			}

			ctx := cmd.Context()
			out := f.Output()

			orch, cleanup, err := f.Orchestrator(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := orch.Destroy(ctx); err != nil {
				return err
			}

			out.Success("All plan resources deleted")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")

	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Mastokube/internal/domain"
)

// NewRollbackCmd создаёт команду rollback: удаление ресурсов стадии.
func NewRollbackCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "rollback STAGE",
		Short: "Delete resources of a failed stage",
		Long: `Delete resources of a stage so a partially initialized state
does not block a re-run. Stages at or past the database migration
cannot be rolled back: that requires manual intervention.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := f.Output()

			orch, cleanup, err := f.Orchestrator(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			name := domain.StageName(args[0])
			if err := orch.Rollback(ctx, name); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Stage %s rolled back", name))
			return nil
		},
	}
}

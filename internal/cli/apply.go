package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Mastokube/internal/domain"
)

// NewApplyCmd создаёт команду apply: выполнение плана целиком или
// одной стадии.
func NewApplyCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "apply {all|STAGE}",
		Short: "Apply the whole plan or a single stage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := f.Output()

			orch, cleanup, err := f.Orchestrator(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if args[0] == "all" {
				if err := orch.Execute(ctx); err != nil {
					return err
				}
				out.Success("Rollout complete")
				return nil
			}

			env, err := f.Environment()
			if err != nil {
				return err
			}

			name := domain.StageName(args[0])
			stage := orch.Plan().Stage(name)
			if stage == nil {
				return fmt.Errorf("unknown stage %q", args[0])
			}

			if err := orch.EnsureNamespace(ctx); err != nil {
				return err
			}
			if err := orch.Apply(ctx, name); err != nil {
				return err
			}
			if err := orch.AwaitReady(ctx, name, env.StageTimeout()); err != nil {
				return err
			}
			if stage.ExtractsSecrets {
				if _, err := orch.ExtractSecrets(ctx, name); err != nil {
					return err
				}
			}

			out.Success(fmt.Sprintf("Stage %s applied and ready", name))
			return nil
		},
	}
}

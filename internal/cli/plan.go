package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewPlanCmd создаёт команду plan: вывод плана без обращения к кластеру.
func NewPlanCmd(f *Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Validate config and print the deployment plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, plan, err := f.Plan()
			if err != nil {
				return err
			}
			out := f.Output()

			headers := []string{"STAGE", "DEPENDS_ON", "RESOURCES", "PROBE"}
			rows := make([][]string, len(plan.Stages))
			for i, stage := range plan.Stages {
				deps := make([]string, len(stage.DependsOn))
				for j, dep := range stage.DependsOn {
					deps[j] = string(dep)
				}
				rows[i] = []string{
					string(stage.Name),
					strings.Join(deps, ","),
					strconv.Itoa(len(stage.Resources)),
					string(stage.Probe),
				}
			}

			out.Print(headers, rows, plan)
			out.Success("Plan valid: " + strconv.Itoa(len(plan.Stages)) + " stages, namespace " + plan.Namespace)
			return nil
		},
	}
}

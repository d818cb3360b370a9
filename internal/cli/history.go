package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Mastokube/internal/domain"
)

// NewHistoryCmd создаёт команду history: прошлые rollouts из хранилища.
func NewHistoryCmd(f *Factory) *cobra.Command {
	var limit int
	var rolloutID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past rollouts from the history store",
		Long: `List recent rollouts recorded in PostgreSQL (requires ` + EnvDBURL + `).
With --rollout, show the stage transitions of a single rollout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := f.Output()

			rollouts, events, closePool, err := f.History(ctx)
			if err != nil {
				return err
			}
			defer closePool()

			if rolloutID != "" {
				id, err := uuid.Parse(rolloutID)
				if err != nil {
					return fmt.Errorf("invalid rollout id %q: %w", rolloutID, err)
				}
				rollout, err := rollouts.GetByID(ctx, id)
				if err != nil {
					return err
				}
				list, err := events.ListByRollout(ctx, id)
				if err != nil {
					return err
				}
				out.Print(stageEventHeaders, stageEventRows(list), struct {
					Rollout *domain.Rollout     `json:"rollout"`
					Events  []domain.StageEvent `json:"events"`
				}{rollout, list})
				return nil
			}

			list, err := rollouts.ListRecent(ctx, limit)
			if err != nil {
				return err
			}
			out.Print(rolloutHeaders, rolloutRows(list), list)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of rollouts to list")
	cmd.Flags().StringVar(&rolloutID, "rollout", "", "Show stage transitions of one rollout by ID")

	return cmd
}

var rolloutHeaders = []string{"ID", "ENVIRONMENT", "STATUS", "STARTED", "DURATION", "ERROR"}

func rolloutRows(rollouts []domain.Rollout) [][]string {
	rows := make([][]string, len(rollouts))
	for i, r := range rollouts {
		var started, duration string
		if r.StartedAt != nil {
			started = r.StartedAt.Format(time.RFC3339)
		}
		if d := r.Duration(); d > 0 {
			duration = d.Round(time.Second).String()
		}
		rows[i] = []string{
			r.ID.String(),
			r.Environment,
			string(r.Status),
			started,
			duration,
			r.Error,
		}
	}
	return rows
}

var stageEventHeaders = []string{"STAGE", "STATUS", "ATTEMPT", "AT", "ERROR"}

func stageEventRows(events []domain.StageEvent) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			string(e.Stage),
			string(e.Status),
			strconv.Itoa(e.Attempt),
			e.CreatedAt.Format(time.RFC3339),
			e.Error,
		}
	}
	return rows
}

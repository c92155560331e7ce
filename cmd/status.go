package cmd

import (
	"fmt"

	"github.com/forkline/forkline/internal/config"
	"github.com/forkline/forkline/internal/domain"
	"github.com/forkline/forkline/internal/repository"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command.
func NewStatusCmd() *cobra.Command {
	var statusSessionID string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the outcome of the most recent sync run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			journal := repository.NewJSONJournalRepository(afero.NewOsFs(), cfg.JournalDir)
			ctx := cmd.Context()
			var rec *domain.RunRecord
			if statusSessionID != "" {
				rec, err = journal.Load(ctx, statusSessionID)
			} else {
				rec, err = journal.LoadLatest(ctx)
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session:\t%s\n", rec.SessionID)
			fmt.Fprintf(out, "Status:\t%s\n", rec.Status)
			fmt.Fprintf(out, "Stage:\t%s\n", rec.Stage)
			fmt.Fprintf(out, "Upstream:\t%s\n", rec.Upstream)
			fmt.Fprintf(out, "Started:\t%s\n", rec.StartedAt.Format("2006-01-02 15:04:05 MST"))
			if rec.DryRun {
				fmt.Fprintln(out, "Mode:\tdry-run")
			}
			if len(rec.Summary.PrunedTags) > 0 {
				fmt.Fprintf(out, "Pruned:\t%v\n", rec.Summary.PrunedTags)
			}
			fmt.Fprintf(out, "Published:\t%d\n", rec.Summary.Published())
			fmt.Fprintf(out, "Skipped:\t%d\n", rec.Summary.Skipped())
			fmt.Fprintf(out, "Failed:\t%d\n", rec.Summary.Failed())
			for _, res := range rec.Summary.Results {
				line := fmt.Sprintf("  %s\t%s", res.Tag, res.Outcome)
				if res.Reason != "" {
					line += "\t" + res.Reason
				}
				fmt.Fprintln(out, line)
			}
			if rec.Error != "" {
				fmt.Fprintf(out, "Error:\t%s\n", rec.Error)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&statusSessionID, "session-id", "", "Show a specific session (latest if not specified)")
	return cmd
}

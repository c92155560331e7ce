package cmd

import (
	"github.com/forkline/forkline/internal/orchestrator"
	"github.com/spf13/cobra"
)

// NewReconcileCmd creates the reconcile command.
func NewReconcileCmd() *cobra.Command {
	var (
		reconcileDryRun   bool
		reconcileCIOutput bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Delete fork tags that no longer exist upstream",
		Long: `Reconcile compares the fork's tag namespace against upstream and
deletes fork tags whose upstream counterpart is gone. No tags are
published; use sync for the full pipeline.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			defer c.logger.Sync() //nolint:errcheck
			cfg := orchestrator.SyncConfig{
				DryRun:        reconcileDryRun,
				CIOutput:      reconcileCIOutput,
				ReconcileOnly: true,
			}
			return c.syncOrchestrator().Execute(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "Report stale tags without deleting them")
	cmd.Flags().BoolVar(&reconcileCIOutput, "ci-output", false, "Output in CI-friendly format")
	return cmd
}

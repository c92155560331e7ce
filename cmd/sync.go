package cmd

import (
	"github.com/forkline/forkline/internal/orchestrator"
	"github.com/spf13/cobra"
)

// NewSyncCmd creates the sync command.
func NewSyncCmd() *cobra.Command {
	var (
		syncDryRun   bool
		syncCIOutput bool
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror upstream tags and republish them with the fork patch applied",
		Long: `Sync runs the full pipeline:
- Configures the committer identity and loads the patch file
- Registers the upstream remote and fetches its history and tags
- Deletes fork tags that no longer exist upstream
- For every new upstream tag, applies the patch and force-pushes the
  patched commit under the same tag name

Tags whose patch does not apply are skipped and reported; they never
abort the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			defer c.logger.Sync() //nolint:errcheck
			cfg := orchestrator.SyncConfig{
				DryRun:   syncDryRun,
				CIOutput: syncCIOutput,
			}
			return c.syncOrchestrator().Execute(cmd.Context(), cfg)
		},
	}
	cmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan and report without mutating the fork")
	cmd.Flags().BoolVar(&syncCIOutput, "ci-output", false, "Output in CI-friendly format")
	return cmd
}

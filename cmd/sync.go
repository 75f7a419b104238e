package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/app"
)

type syncOptions struct {
	projects []int
	dryRun   bool
}

func newSyncCmd() *cobra.Command {
	opts := &syncOptions{}
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync every configured project into the database",
		Long: `Fetches each project's description and config from its repository,
builds the showcase record and upserts it. Projects run 1..event.n_projects
unless --project is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, opts)
		},
	}
	cmd.Flags().IntSliceVar(&opts.projects, "project", nil, "sync only these project ids (repeatable)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "build records without writing to Postgres")
	return cmd
}

func runSync(cmd *cobra.Command, opts *syncOptions) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	if opts.dryRun {
		if e.cfg.Event.VideoURL == "" {
			return fmt.Errorf("event.video_url is required to sync")
		}
	} else if err := e.cfg.ValidateSync(); err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), e.cfg, e.logger, app.Options{DryRun: opts.dryRun})
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close()

	ids := opts.projects
	if len(ids) == 0 {
		ids = e.cfg.ProjectIDs()
	}
	for _, id := range ids {
		if id <= 0 {
			return fmt.Errorf("invalid project id %d", id)
		}
	}

	summary, err := a.Runner().Run(cmd.Context(), ids)
	if err != nil {
		return fmt.Errorf("run sync: %w", err)
	}
	e.logger.Info("sync command finished",
		zap.String("run_id", summary.RunID),
		zap.Int("synced", summary.Synced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

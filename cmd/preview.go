package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/showcase-sync/internal/app"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview PROJECT_ID",
		Short: "Build one project's record and print it without writing",
		Args:  cobra.ExactArgs(1),
		RunE:  runPreview,
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	projectID, err := strconv.Atoi(args[0])
	if err != nil || projectID <= 0 {
		return fmt.Errorf("invalid project id %q", args[0])
	}
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), e.cfg, e.logger, app.Options{DryRun: true})
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close()

	job, ok := a.Runner().Job(projectID)
	if !ok {
		return fmt.Errorf("no timestamp configured for project %d", projectID)
	}
	record, err := a.Pipeline().Build(cmd.Context(), job)
	if err != nil {
		return fmt.Errorf("build project %d: %w", projectID, err)
	}
	if record == nil {
		return fmt.Errorf("project %d has no usable config", projectID)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(record); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

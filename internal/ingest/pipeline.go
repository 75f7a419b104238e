package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/jsonc"
	"github.com/JakeFAU/showcase-sync/internal/metrics"
	"github.com/JakeFAU/showcase-sync/internal/resolver"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// Pipeline runs branch resolution, config parsing, link rewriting and
// record assembly for one project.
type Pipeline struct {
	resolver  *resolver.Resolver
	assembler *Assembler
	logger    *zap.Logger
}

// NewPipeline wires a Pipeline.
func NewPipeline(res *resolver.Resolver, asm *Assembler, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{resolver: res, assembler: asm, logger: logger}
}

// ResolveAndBuild returns the record for a project, or nil when no usable
// config was found. Errors are transport failures only.
func (p *Pipeline) ResolveAndBuild(
	ctx context.Context,
	projectID int,
	videoURL string,
	timestampSeconds int,
	track string,
) (*showcase.ProjectRecord, error) {
	return p.Build(ctx, showcase.ProjectJob{
		ProjectID:        projectID,
		VideoURL:         videoURL,
		TimestampSeconds: timestampSeconds,
		Track:            track,
	})
}

// Build is ResolveAndBuild over a ProjectJob.
func (p *Pipeline) Build(ctx context.Context, job showcase.ProjectJob) (*showcase.ProjectRecord, error) {
	logger := p.logger.With(zap.Int("project_id", job.ProjectID))

	res, err := p.resolver.Resolve(ctx, job.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve project %d: %w", job.ProjectID, err)
	}
	metrics.ObserveBranchesScanned(res.BranchesScanned)
	if res.Config == nil {
		logger.Info("no config file found, skipping")
		return nil, nil
	}

	doc := jsonc.ParseLenient(res.Config.Content, logger.With(zap.String("branch", res.Config.Branch)))
	if doc == nil {
		logger.Info("config file unusable, skipping", zap.String("branch", res.Config.Branch))
		return nil, nil
	}

	record := p.assembler.Assemble(job, res.Description, doc)
	logger.Debug("record assembled",
		zap.String("slug", record.Slug),
		zap.Bool("has_description", res.Description != nil),
		zap.Int("branches_scanned", res.BranchesScanned),
	)
	return record, nil
}

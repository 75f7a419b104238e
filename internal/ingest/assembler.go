// Package ingest turns resolved repository files into project records.
package ingest

import (
	"fmt"

	"github.com/JakeFAU/showcase-sync/internal/jsonc"
	"github.com/JakeFAU/showcase-sync/internal/resolver"
	"github.com/JakeFAU/showcase-sync/internal/rewrite"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
	"github.com/JakeFAU/showcase-sync/internal/slug"
)

// Descriptor keys read from the project config.
const (
	KeyProjectName = "project_name"
	KeyLogoURL     = "logo_url"
	KeyOneliner    = "oneliner"
	KeyAppURL      = "app_url"
)

// Assembler merges resolved files with external context into a record.
type Assembler struct {
	hosts    showcase.Hosts
	rewriter *rewrite.Rewriter
	clock    showcase.Clock
}

// NewAssembler builds an Assembler for the given host layout.
func NewAssembler(hosts showcase.Hosts, clock showcase.Clock) *Assembler {
	return &Assembler{
		hosts:    hosts,
		rewriter: rewrite.New(hosts),
		clock:    clock,
	}
}

// Assemble returns nil when config is nil; the project is skipped.
func (a *Assembler) Assemble(
	job showcase.ProjectJob,
	description *resolver.File,
	config jsonc.Document,
) *showcase.ProjectRecord {
	if config == nil {
		return nil
	}

	desc := showcase.NoDescription
	if description != nil && description.Content != "" {
		desc = a.rewriter.Rewrite(description.Content, job.ProjectID, description.Branch)
	}

	logo := a.hosts.RawLogoURL(config.String(KeyLogoURL, ""))
	if logo == "" {
		logo = showcase.NoLogoURL
	}

	track := job.Track
	if track == "" {
		track = showcase.DefaultTrack
	}

	name := config.String(KeyProjectName, "")
	return &showcase.ProjectRecord{
		ProjectID:   job.ProjectID,
		ProjectName: name,
		Slug:        slug.Make(name),
		Oneliner:    config.String(KeyOneliner, showcase.NoOneliner),
		Description: desc,
		LogoURL:     logo,
		RepoURL:     a.hosts.RepoURL(job.ProjectID),
		AppURL:      config.String(KeyAppURL, ""),
		DemoURL:     DemoURL(job.VideoURL, job.TimestampSeconds),
		Track:       track,
		CreatedAt:   a.clock.Now().UTC(),
	}
}

// DemoURL pins the event video at a project's timestamp.
func DemoURL(videoURL string, timestampSeconds int) string {
	return fmt.Sprintf("%s&t=%ds", videoURL, timestampSeconds)
}

// Package resolver locates a project's description and config files across
// its branches in a single ordered scan.
package resolver

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// Default file names looked up in every branch.
const (
	DefaultDescriptionFile = "vote-description.md"
	DefaultConfigFile      = "hack-project.jsonc"
)

// Config names the files the resolver searches for.
type Config struct {
	DescriptionFile string
	ConfigFile      string
}

// File is a located file and the branch it came from.
type File struct {
	Branch  string
	Content string
}

// Result carries whichever files were found. A nil slot means no branch
// served that file.
type Result struct {
	Description     *File
	Config          *File
	BranchesScanned int
}

// Resolver walks branches in host order.
type Resolver struct {
	source showcase.Source
	cfg    Config
	logger *zap.Logger
}

// New builds a Resolver, defaulting empty file names.
func New(source showcase.Source, cfg Config, logger *zap.Logger) *Resolver {
	if cfg.DescriptionFile == "" {
		cfg.DescriptionFile = DefaultDescriptionFile
	}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = DefaultConfigFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, cfg: cfg, logger: logger}
}

// Resolve lists the project's branches and, for each branch in order,
// fetches whichever of the two files is still missing. It stops as soon as
// both are found. Only transport failures are returned.
func (r *Resolver) Resolve(ctx context.Context, projectID int) (Result, error) {
	branches, err := r.source.ListBranches(ctx, projectID)
	if err != nil {
		return Result{}, asTransport(fmt.Errorf("list branches for project %d: %w", projectID, err))
	}

	var res Result
	for _, branch := range branches {
		if res.Description != nil && res.Config != nil {
			break
		}
		res.BranchesScanned++

		if res.Description == nil {
			file, err := r.fetch(ctx, projectID, branch, r.cfg.DescriptionFile)
			if err != nil {
				return Result{}, err
			}
			res.Description = file
		}
		if res.Config == nil {
			file, err := r.fetch(ctx, projectID, branch, r.cfg.ConfigFile)
			if err != nil {
				return Result{}, err
			}
			res.Config = file
		}
	}

	r.logger.Debug("branch scan finished",
		zap.Int("project_id", projectID),
		zap.Int("branches_total", len(branches)),
		zap.Int("branches_scanned", res.BranchesScanned),
		zap.Bool("description_found", res.Description != nil),
		zap.Bool("config_found", res.Config != nil),
	)
	return res, nil
}

func (r *Resolver) fetch(ctx context.Context, projectID int, branch, path string) (*File, error) {
	content, ok, err := r.source.FetchFile(ctx, projectID, branch, path)
	if err != nil {
		return nil, asTransport(fmt.Errorf("fetch %s@%s for project %d: %w", path, branch, projectID, err))
	}
	if !ok || content == "" {
		return nil, nil
	}
	r.logger.Debug("file located",
		zap.Int("project_id", projectID),
		zap.String("branch", branch),
		zap.String("path", path),
	)
	return &File{Branch: branch, Content: content}, nil
}

func asTransport(err error) error {
	if errors.Is(err, showcase.ErrTransport) {
		return err
	}
	return fmt.Errorf("%w: %w", showcase.ErrTransport, err)
}

// Package worker runs project syncs: build the record, persist it, then
// archive and announce it.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/hash/sha256"
	"github.com/JakeFAU/showcase-sync/internal/metrics"
	"github.com/JakeFAU/showcase-sync/internal/showcase"
)

// SyncedTopic is the event name attached to published sync notifications.
const SyncedTopic = "project.synced"

// Builder turns a job into a record. A nil record means the project is skipped.
type Builder interface {
	Build(ctx context.Context, job showcase.ProjectJob) (*showcase.ProjectRecord, error)
}

// Schedule answers per-project event settings.
type Schedule interface {
	Timestamp(projectID int) (int, bool)
	Track(projectID int) (string, bool)
}

// Config controls Runner behavior.
type Config struct {
	VideoURL       string
	DefaultTrack   string
	Concurrency    int
	SnapshotPrefix string
	Topic          string
}

// Result is the outcome of syncing one project.
type Result struct {
	ProjectID   int                     `json:"project_id"`
	Outcome     string                  `json:"outcome"`
	Record      *showcase.ProjectRecord `json:"record,omitempty"`
	SnapshotURI string                  `json:"snapshot_uri,omitempty"`
	ContentHash string                  `json:"content_hash,omitempty"`
	Error       string                  `json:"error,omitempty"`
}

// Summary aggregates one sync run.
type Summary struct {
	RunID   string   `json:"run_id"`
	Synced  int      `json:"synced"`
	Skipped int      `json:"skipped"`
	Failed  int      `json:"failed"`
	Results []Result `json:"results"`
}

func (s *Summary) add(res Result) {
	switch res.Outcome {
	case metrics.OutcomeSynced:
		s.Synced++
	case metrics.OutcomeSkipped:
		s.Skipped++
	default:
		s.Failed++
	}
	s.Results = append(s.Results, res)
}

// Runner syncs projects into the record store.
type Runner struct {
	builder   Builder
	store     showcase.RecordStore
	blobs     showcase.BlobStore
	publisher showcase.Publisher
	schedule  Schedule
	clock     showcase.Clock
	ids       showcase.IDGenerator
	hasher    *sha256.Hasher
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Runner. blobs and publisher may be nil.
func New(
	builder Builder,
	store showcase.RecordStore,
	blobs showcase.BlobStore,
	publisher showcase.Publisher,
	schedule Schedule,
	clock showcase.Clock,
	ids showcase.IDGenerator,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.DefaultTrack == "" {
		cfg.DefaultTrack = showcase.DefaultTrack
	}
	if cfg.Topic == "" {
		cfg.Topic = SyncedTopic
	}
	return &Runner{
		builder:   builder,
		store:     store,
		blobs:     blobs,
		publisher: publisher,
		schedule:  schedule,
		clock:     clock,
		ids:       ids,
		hasher:    sha256.New(),
		cfg:       cfg,
		logger:    logger,
	}
}

// Run syncs every project in projectIDs and blocks until all finish or ctx
// is canceled. Per-project failures are counted, never returned.
func (r *Runner) Run(ctx context.Context, projectIDs []int) (Summary, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		return Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := r.logger.With(zap.String("run_id", runID))
	logger.Info("sync run started", zap.Int("projects", len(projectIDs)), zap.Int("concurrency", r.cfg.Concurrency))

	summary := Summary{RunID: runID}
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan int)
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				res := r.syncProject(ctx, runID, id, logger)
				mu.Lock()
				summary.add(res)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, id := range projectIDs {
		select {
		case jobs <- id:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].ProjectID < summary.Results[j].ProjectID
	})
	logger.Info("sync run finished",
		zap.Int("synced", summary.Synced),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	if err := ctx.Err(); err != nil {
		return summary, fmt.Errorf("sync run %s interrupted: %w", runID, err)
	}
	return summary, nil
}

// SyncOne syncs a single project under a fresh run id.
func (r *Runner) SyncOne(ctx context.Context, projectID int) (Result, error) {
	runID, err := r.ids.NewID()
	if err != nil {
		return Result{}, fmt.Errorf("generate run id: %w", err)
	}
	return r.syncProject(ctx, runID, projectID, r.logger.With(zap.String("run_id", runID))), nil
}

// Job builds the pipeline input for a project. ok is false when the project
// has no configured timestamp.
func (r *Runner) Job(projectID int) (showcase.ProjectJob, bool) {
	ts, ok := r.schedule.Timestamp(projectID)
	if !ok {
		return showcase.ProjectJob{}, false
	}
	track, ok := r.schedule.Track(projectID)
	if !ok {
		r.logger.Warn("no track configured, using default",
			zap.Int("project_id", projectID),
			zap.String("track", r.cfg.DefaultTrack),
		)
		track = r.cfg.DefaultTrack
	}
	return showcase.ProjectJob{
		ProjectID:        projectID,
		VideoURL:         r.cfg.VideoURL,
		TimestampSeconds: ts,
		Track:            track,
	}, true
}

func (r *Runner) syncProject(ctx context.Context, runID string, projectID int, logger *zap.Logger) Result {
	logger = logger.With(zap.Int("project_id", projectID))
	res := Result{ProjectID: projectID}
	finish := func(outcome string, err error) Result {
		res.Outcome = outcome
		if err != nil {
			res.Error = err.Error()
		}
		metrics.ObserveProject(outcome)
		logger.Info("project processed", zap.String("outcome", outcome))
		return res
	}

	job, ok := r.Job(projectID)
	if !ok {
		logger.Warn("no timestamp configured, skipping")
		return finish(metrics.OutcomeSkipped, nil)
	}

	record, err := r.builder.Build(ctx, job)
	if err != nil {
		logger.Error("build record failed", zap.Error(err))
		return finish(metrics.OutcomeFailed, err)
	}
	if record == nil {
		return finish(metrics.OutcomeSkipped, nil)
	}
	res.Record = record

	if err := r.store.UpsertProject(ctx, *record); err != nil {
		logger.Error("upsert project failed", zap.Error(err))
		return finish(metrics.OutcomeFailed, err)
	}

	payload, err := json.Marshal(record)
	if err != nil {
		logger.Warn("marshal snapshot failed", zap.Error(err))
	} else {
		res.ContentHash = r.hasher.Hash(payload)
		res.SnapshotURI = r.archive(ctx, runID, record.ProjectID, payload, logger)
	}
	r.announce(ctx, runID, record, res, logger)
	return finish(metrics.OutcomeSynced, nil)
}

func (r *Runner) archive(ctx context.Context, runID string, projectID int, payload []byte, logger *zap.Logger) string {
	if r.blobs == nil {
		return ""
	}
	uri, err := r.blobs.PutObject(ctx, r.snapshotPath(runID, projectID), "application/json", bytes.NewReader(payload))
	if err != nil {
		logger.Warn("archive snapshot failed", zap.Error(err))
		return ""
	}
	logger.Debug("snapshot archived", zap.String("uri", uri))
	return uri
}

func (r *Runner) announce(ctx context.Context, runID string, record *showcase.ProjectRecord, res Result, logger *zap.Logger) {
	if r.publisher == nil {
		return
	}
	event := showcase.SyncedEvent{
		RunID:       runID,
		ProjectID:   record.ProjectID,
		Slug:        record.Slug,
		SnapshotURI: res.SnapshotURI,
		ContentHash: res.ContentHash,
		SyncedAt:    r.clock.Now(),
	}
	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, event); err != nil {
		logger.Warn("publish sync event failed", zap.Error(err))
	}
}

func (r *Runner) snapshotPath(runID string, projectID int) string {
	prefix := strings.Trim(r.cfg.SnapshotPrefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/project-%d.json", runID, projectID)
	}
	return fmt.Sprintf("%s/%s/project-%d.json", prefix, runID, projectID)
}

// Package orchestrator drives the per-video pipeline: manifest parse,
// resume reconciliation, segment download, join and cleanup.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/stitcher/internal/domain"
	xlog "github.com/cwygoda/stitcher/internal/log"
	"github.com/cwygoda/stitcher/internal/workdir"
)

// Config carries the paths and knobs the pipeline needs. Constructed once
// at process start and threaded through explicitly, never ambient state.
type Config struct {
	DownloadsDir string
	TempDir      string
	ForceExt     string // override segment extension, "" = derive from manifest
	OutputExt    string // final container extension, e.g. ".mp4"
	Workers      int    // segment download concurrency within a job, 1 = sequential
}

// Orchestrator runs one job at a time through its pipeline states.
type Orchestrator struct {
	cfg      Config
	manifest domain.ManifestFetcher
	segments domain.SegmentFetcher
	joiner   domain.Joiner
}

// New wires the pipeline collaborators together.
func New(cfg Config, mf domain.ManifestFetcher, sf domain.SegmentFetcher, j domain.Joiner) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.OutputExt == "" {
		cfg.OutputExt = ".mp4"
	}
	return &Orchestrator{cfg: cfg, manifest: mf, segments: sf, joiner: j}
}

// Run executes the full pipeline for one job. Failures never escape the job
// boundary: they are logged and reported in the returned result so the
// batch runner keeps going.
func (o *Orchestrator) Run(ctx context.Context, job domain.VideoJob) domain.JobResult {
	res := domain.JobResult{
		Job:       job,
		Status:    domain.StatusRunning,
		StartedAt: time.Now(),
	}
	logger := xlog.WithJob("orchestrator", job.Name)
	logger.Info().Str("url", job.URL).Msg("job started")

	err := o.run(ctx, job, &res)
	res.FinishedAt = time.Now()
	if err != nil {
		res.Status = domain.StatusFailed
		res.Err = err
		logger.Error().Err(err).Msg("job failed")
		return res
	}
	res.Status = domain.StatusCompleted
	logger.Info().
		Int("segments", res.SegmentsTotal).
		Int("reused", res.SegmentsReused).
		Dur("elapsed", res.FinishedAt.Sub(res.StartedAt)).
		Msg("job completed")
	return res
}

func (o *Orchestrator) run(ctx context.Context, job domain.VideoJob, res *domain.JobResult) error {
	logger := xlog.WithJob("orchestrator", job.Name)

	// Init: output and working directories must exist before anything else.
	outDir := filepath.Join(o.cfg.DownloadsDir, job.Name)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	// ManifestResolved.
	playlist, err := o.manifest.Fetch(ctx, job.URL)
	if err != nil {
		return err
	}

	ext := o.cfg.ForceExt
	if ext == "" {
		ext = playlist.SegmentExt()
	}
	work := workdir.New(o.cfg.TempDir, job.Name, ext)
	if err := work.Ensure(); err != nil {
		return err
	}

	// Reconciled: mark each index as reuse or pending.
	total := len(playlist.Segments)
	res.SegmentsTotal = total
	done, err := work.Scan(total)
	if err != nil {
		return err
	}
	res.SegmentsReused = len(done)
	if len(done) > 0 {
		logger.Info().Int("reused", len(done)).Int("total", total).Msg("resuming from existing segments")
	}

	// Downloading: pending segments dispatched in index order onto a
	// bounded pool; the first terminal failure cancels the rest.
	if err := o.download(ctx, playlist, work, done); err != nil {
		return err
	}

	// Join barrier: re-verify the complete gap-free set 0..N-1 before the
	// joiner sees it, so gaps are prevented structurally.
	files, err := o.verify(work, total)
	if err != nil {
		return err
	}

	// Joining: a stale artifact from a previous run is replaced, never mixed.
	output := filepath.Join(outDir, job.Name+o.cfg.OutputExt)
	if _, err := os.Stat(output); err == nil {
		logger.Info().Str("output", output).Msg("removing stale output artifact")
		if err := os.Remove(output); err != nil {
			return fmt.Errorf("remove stale output: %w", err)
		}
	}
	if err := o.joiner.Join(ctx, files, output); err != nil {
		return err
	}

	// CleanedUp: segment files are consumed, the working dir goes away.
	if err := work.Remove(); err != nil {
		return err
	}
	logger.Info().Str("output", output).Msg("artifact written")
	return nil
}

type segmentTask struct {
	url  string
	dest string
}

func (o *Orchestrator) download(ctx context.Context, playlist *domain.Playlist, work workdir.Dir, done map[int]bool) error {
	// Resolve every pending URL before the first byte moves, so a malformed
	// URI fails the job without wasting downloads.
	var tasks []segmentTask
	for _, seg := range playlist.Segments {
		if done[seg.Index] {
			continue
		}
		url, err := playlist.SegmentURL(seg)
		if err != nil {
			return err
		}
		tasks = append(tasks, segmentTask{url: url, dest: work.SegmentPath(seg.Index)})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			// Once a segment fails terminally the group context is
			// cancelled and remaining indices are not attempted.
			if err := gctx.Err(); err != nil {
				return err
			}
			return o.segments.Fetch(gctx, task.url, task.dest)
		})
	}
	return g.Wait()
}

// verify builds the ordered join list and fails if any index is missing or
// empty, which would otherwise produce a corrupt but "successful" output.
func (o *Orchestrator) verify(work workdir.Dir, total int) ([]string, error) {
	done, err := work.Scan(total)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, total)
	for i := 0; i < total; i++ {
		if !done[i] {
			return nil, fmt.Errorf("segment %d missing after download, refusing to join", i)
		}
		files = append(files, work.SegmentPath(i))
	}
	return files, nil
}

// Package batch sequences the orchestrator over the configured job list,
// isolating failures per item.
package batch

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/cwygoda/stitcher/internal/domain"
	xlog "github.com/cwygoda/stitcher/internal/log"
)

// JobRunner is the driving port into the per-job pipeline.
type JobRunner interface {
	Run(ctx context.Context, job domain.VideoJob) domain.JobResult
}

// Runner iterates jobs strictly in configured order, one at a time.
type Runner struct {
	orch     JobRunner
	recorder domain.RunRecorder // optional, nil disables history
	log      zerolog.Logger
}

// New creates a batch runner. recorder may be nil.
func New(orch JobRunner, recorder domain.RunRecorder) *Runner {
	return &Runner{
		orch:     orch,
		recorder: recorder,
		log:      xlog.WithComponent("batch"),
	}
}

// RunAll runs every job in order and returns the collected results. One
// job's failure never aborts the batch; only context cancellation stops the
// loop early.
func (r *Runner) RunAll(ctx context.Context, jobs []domain.VideoJob) []domain.JobResult {
	results := make([]domain.JobResult, 0, len(jobs))
	for _, job := range jobs {
		if ctx.Err() != nil {
			r.log.Warn().Err(ctx.Err()).Msg("batch interrupted")
			break
		}

		res := r.orch.Run(ctx, job)
		results = append(results, res)

		if r.recorder != nil {
			if err := r.recorder.Record(ctx, res); err != nil {
				r.log.Warn().Str("job", job.Name).Err(err).Msg("failed to record run history")
			}
		}
	}

	failed := 0
	for _, res := range results {
		if res.Failed() {
			failed++
		}
	}
	r.log.Info().Int("jobs", len(results)).Int("failed", failed).Msg("batch finished")
	return results
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobStatus represents the outcome state of a job run.
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

var ErrInvalidJobName = errors.New("invalid job name")

// VideoJob identifies one video acquisition run. Name doubles as the
// directory key for the job's working and output paths, so it must be
// filesystem-safe.
type VideoJob struct {
	Name string
	URL  string
}

// Validate rejects names that cannot be used as a directory component.
func (j VideoJob) Validate() error {
	switch {
	case j.Name == "", j.Name == ".", j.Name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidJobName, j.Name)
	case strings.ContainsAny(j.Name, `/\`):
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidJobName, j.Name)
	}
	if j.URL == "" {
		return fmt.Errorf("job %q: url must not be empty", j.Name)
	}
	return nil
}

// JobResult is the explicit per-job outcome collected by the batch runner.
type JobResult struct {
	Job            VideoJob
	Status         JobStatus
	SegmentsTotal  int
	SegmentsReused int
	Err            error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Failed reports whether the run ended in failure.
func (r JobResult) Failed() bool {
	return r.Status == StatusFailed
}

// RunRecord is one persisted job run, as stored by the history repository.
type RunRecord struct {
	ID             int64
	Name           string
	URL            string
	Status         JobStatus
	Error          string
	SegmentsTotal  int
	SegmentsReused int
	StartedAt      time.Time
	FinishedAt     time.Time
}

package domain

import "fmt"

// ManifestError means the manifest was unreachable, unparsable, or empty.
// Job-fatal, never retried: a missing manifest means there is nothing to
// download.
type ManifestError struct {
	URL string
	Err error
}

func (e *ManifestError) Error() string {
	return fmt.Sprintf("manifest %s: %v", e.URL, e.Err)
}

func (e *ManifestError) Unwrap() error { return e.Err }

// DownloadError means a segment could not be fetched within the attempt
// budget. Job-fatal: remaining segments for the job are not attempted.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: giving up after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// JoinError means the remux/concatenation step failed. The joiner removes
// any partial output before returning it.
type JoinError struct {
	Output string
	Err    error
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("join %s: %v", e.Output, e.Err)
}

func (e *JoinError) Unwrap() error { return e.Err }

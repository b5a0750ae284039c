package domain

import "context"

// ManifestFetcher is the driven port for retrieving and parsing a playlist.
type ManifestFetcher interface {
	Fetch(ctx context.Context, manifestURL string) (*Playlist, error)
}

// SegmentFetcher is the driven port for fetching one segment's bytes into a
// file. Implementations must never leave a partial write visible at dest.
type SegmentFetcher interface {
	Fetch(ctx context.Context, url, dest string) error
}

// Joiner is the driven port for lossless concatenation of ordered segment
// files into a single output container.
type Joiner interface {
	Join(ctx context.Context, files []string, output string) error
}

// RunRecorder is the driven port for run-history persistence.
type RunRecorder interface {
	Record(ctx context.Context, res JobResult) error
	Recent(ctx context.Context, limit int) ([]RunRecord, error)
}

// Package download fetches individual segments with bounded retry and
// atomic on-disk visibility.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	"github.com/cwygoda/stitcher/internal/domain"
	xlog "github.com/cwygoda/stitcher/internal/log"
)

// Downloader streams remote segments to disk. A segment file becomes
// visible at its final path only after its content was fully written; every
// attempt writes through a pending temp file that is discarded on failure.
type Downloader struct {
	client      *http.Client
	maxAttempts int
	retryDelay  time.Duration
	log         zerolog.Logger
}

// New creates a downloader. maxAttempts bounds the attempts per segment,
// retryDelay is the constant wait between attempts.
func New(client *http.Client, maxAttempts int, retryDelay time.Duration) *Downloader {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Downloader{
		client:      client,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		log:         xlog.WithComponent("download"),
	}
}

// Fetch downloads url into dest, retrying on any per-attempt failure until
// the attempt budget is exhausted, then returns a domain.DownloadError.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) error {
	attempt := 0
	op := func() error {
		attempt++
		return d.fetchOnce(ctx, url, dest)
	}
	notify := func(err error, wait time.Duration) {
		d.log.Warn().
			Str("url", url).
			Int("attempt", attempt).
			Int("max_attempts", d.maxAttempts).
			Dur("retry_in", wait).
			Err(err).
			Msg("segment download failed")
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryDelay), uint64(d.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return &domain.DownloadError{URL: url, Attempts: attempt, Err: err}
	}
	return nil
}

func (d *Downloader) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("create request: %w", err))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	// renameio handles temp file creation, fsync, atomic rename and
	// cleanup: dest never holds a partial body.
	pending, err := renameio.NewPendingFile(dest)
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		// No-op after a successful replace.
		_ = pending.Cleanup()
	}()

	if _, err := io.Copy(pending, resp.Body); err != nil {
		return fmt.Errorf("stream body: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("finalize segment file: %w", err)
	}
	return nil
}

// Package manifest retrieves and parses playlist manifests into ordered
// segment lists.
package manifest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cwygoda/stitcher/internal/domain"
	xlog "github.com/cwygoda/stitcher/internal/log"
)

// Fetcher retrieves a manifest document over HTTP and parses it.
type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

// NewFetcher creates a manifest fetcher using the given client.
func NewFetcher(client *http.Client) *Fetcher {
	return &Fetcher{
		client: client,
		log:    xlog.WithComponent("manifest"),
	}
}

// Fetch retrieves and parses the manifest at manifestURL. A single attempt:
// a transient manifest failure is job-fatal, not retried, since without the
// manifest there is nothing to download.
func (f *Fetcher) Fetch(ctx context.Context, manifestURL string) (*domain.Playlist, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, &domain.ManifestError{URL: manifestURL, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.ManifestError{URL: manifestURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ManifestError{URL: manifestURL, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	segments, err := parse(resp.Body)
	if err != nil {
		return nil, &domain.ManifestError{URL: manifestURL, Err: err}
	}
	if len(segments) == 0 {
		// Almost certainly a bad URL or an unsupported manifest variant,
		// so an error rather than a no-op.
		return nil, &domain.ManifestError{URL: manifestURL, Err: fmt.Errorf("manifest contains no segments")}
	}

	base, err := baseOf(manifestURL)
	if err != nil {
		return nil, &domain.ManifestError{URL: manifestURL, Err: err}
	}

	f.log.Debug().Str("url", manifestURL).Int("segments", len(segments)).Msg("manifest parsed")

	return &domain.Playlist{BaseURL: base, Segments: segments}, nil
}

// parse reads a playlist line by line, preserving document order. Non-tag,
// non-blank lines are segment URIs; a preceding #EXTINF tag contributes the
// segment duration.
func parse(r io.Reader) ([]domain.Segment, error) {
	var segments []domain.Segment
	var duration float64

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if v, ok := strings.CutPrefix(line, "#EXTINF:"); ok {
				duration = parseDuration(v)
			}
			continue
		}
		segments = append(segments, domain.Segment{
			Index:    len(segments),
			URI:      line,
			Duration: duration,
		})
		duration = 0
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return segments, nil
}

// parseDuration extracts the seconds value from an #EXTINF payload like
// "10.000," or "9.6,segment title". Malformed values degrade to 0.
func parseDuration(v string) float64 {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// baseOf truncates the manifest URL to its last path component, dropping
// query and fragment, so relative segment URIs resolve against it.
func baseOf(manifestURL string) (string, error) {
	u, err := url.Parse(manifestURL)
	if err != nil {
		return "", fmt.Errorf("parse manifest url: %w", err)
	}
	u.RawQuery = ""
	u.Fragment = ""
	if i := strings.LastIndex(u.Path, "/"); i >= 0 {
		u.Path = u.Path[:i+1]
	}
	return u.String(), nil
}

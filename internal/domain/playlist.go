package domain

import (
	"fmt"
	"net/url"
	"path"
)

// Segment is one entry of a parsed manifest. Index is the 0-based playlist
// position and defines the total order of the stream; reordering corrupts
// the reassembled output.
type Segment struct {
	Index    int
	URI      string  // as listed in the manifest, relative or absolute
	Duration float64 // seconds, from #EXTINF when present, 0 otherwise
}

// Playlist is a parsed manifest: the base URL for resolving relative
// segment URIs plus the ordered segment list.
type Playlist struct {
	BaseURL  string
	Segments []Segment
}

// SegmentURL resolves a segment's URI against the playlist base. Absolute
// URIs are returned as-is per standard URL-resolution semantics.
func (p *Playlist) SegmentURL(s Segment) (string, error) {
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", p.BaseURL, err)
	}
	ref, err := url.Parse(s.URI)
	if err != nil {
		return "", fmt.Errorf("parse segment uri %q: %w", s.URI, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// SegmentExt returns the file extension of the first segment URI, query
// stripped, falling back to ".ts" when it cannot be determined.
func (p *Playlist) SegmentExt() string {
	if len(p.Segments) == 0 {
		return ".ts"
	}
	uri := p.Segments[0].URI
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		uri = u.Path
	}
	if ext := path.Ext(uri); ext != "" {
		return ext
	}
	return ".ts"
}

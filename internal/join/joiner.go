// Package join concatenates ordered segment files into a single container
// by driving ffmpeg's concat demuxer with a stream copy (no re-encode).
package join

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/cwygoda/stitcher/internal/domain"
	xlog "github.com/cwygoda/stitcher/internal/log"
)

const listFileName = "filelist.txt"

// Joiner remuxes segments with an external ffmpeg binary.
type Joiner struct {
	ffmpeg string
	log    zerolog.Logger
}

// New creates a joiner. An empty path means "ffmpeg" from PATH.
func New(ffmpegPath string) *Joiner {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Joiner{
		ffmpeg: ffmpegPath,
		log:    xlog.WithComponent("join"),
	}
}

// Join concatenates files, in exactly the given order, into output. The
// transient filelist is written next to the segments and removed on every
// exit path; a partial output file is removed before an error is returned.
func (j *Joiner) Join(ctx context.Context, files []string, output string) error {
	if len(files) == 0 {
		return &domain.JoinError{Output: output, Err: fmt.Errorf("no segment files to join")}
	}

	listPath := filepath.Join(filepath.Dir(files[0]), listFileName)
	if err := writeFileList(listPath, files); err != nil {
		return &domain.JoinError{Output: output, Err: err}
	}
	defer os.Remove(listPath)

	args := []string{
		"-f", "concat",
		"-safe", "0",
		"-i", listPath,
		"-c", "copy",
		output,
	}
	j.log.Debug().Str("output", output).Int("segments", len(files)).Msg("remuxing")

	cmd := exec.CommandContext(ctx, j.ffmpeg, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		// Never leave a zero-byte or partially-joined file behind.
		os.Remove(output)
		return &domain.JoinError{
			Output: output,
			Err:    fmt.Errorf("%s failed: %w: %s", j.ffmpeg, err, bytes.TrimSpace(out)),
		}
	}
	return nil
}

// writeFileList writes the concat demuxer input list, one quoted entry per
// segment in join order.
func writeFileList(path string, files []string) error {
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "file '%s'\n", escape(f))
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write filelist: %w", err)
	}
	return nil
}

// escape quotes a path for a single-quoted concat demuxer directive.
func escape(p string) string {
	return strings.ReplaceAll(p, `'`, `'\''`)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stitcher.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
[[videos]]
name = "lecture-01"
url = "https://example.com/lecture-01/play.m3u8"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "downloads", cfg.Paths.Downloads)
	assert.Equal(t, filepath.Join("downloads", "temp"), cfg.Paths.Temp)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout.Duration)
	assert.Equal(t, 3, cfg.Download.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Download.RetryDelay.Duration)
	assert.Equal(t, 4, cfg.Download.Workers)
	assert.Equal(t, "ffmpeg", cfg.Join.FFmpeg)
	assert.Equal(t, ".mp4", cfg.Join.OutputExt)
	assert.NotEmpty(t, cfg.History.Path)
	require.Len(t, cfg.Jobs(), 1)
	assert.Equal(t, "lecture-01", cfg.Jobs()[0].Name)
}

func TestLoad_FullFile(t *testing.T) {
	path := writeConfig(t, `
[paths]
downloads = "/srv/media"
temp = "/var/tmp/stitcher"

[http]
timeout = "10s"
user_agent = "stitcher/1.0"
[http.headers]
Referer = "https://example.com/"

[download]
max_attempts = 5
retry_delay = "250ms"
workers = 2
force_ext = ".ts"

[join]
ffmpeg = "/opt/ffmpeg/bin/ffmpeg"
output_ext = ".mkv"

[history]
path = "/tmp/history.db"

[[videos]]
name = "a"
url = "https://example.com/a.m3u8"

[[videos]]
name = "b"
url = "https://example.com/b.m3u8"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/media", cfg.Paths.Downloads)
	assert.Equal(t, "/var/tmp/stitcher", cfg.Paths.Temp)
	assert.Equal(t, 10*time.Second, cfg.HTTP.Timeout.Duration)
	assert.Equal(t, "stitcher/1.0", cfg.HTTP.UserAgent)
	assert.Equal(t, "https://example.com/", cfg.HTTP.Headers["Referer"])
	assert.Equal(t, 5, cfg.Download.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Download.RetryDelay.Duration)
	assert.Equal(t, 2, cfg.Download.Workers)
	assert.Equal(t, ".ts", cfg.Download.ForceExt)
	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.Join.FFmpeg)
	assert.Equal(t, ".mkv", cfg.Join.OutputExt)
	assert.Equal(t, "/tmp/history.db", cfg.History.Path)

	jobs := cfg.Jobs()
	require.Len(t, jobs, 2)
	// Configured order is execution order.
	assert.Equal(t, "a", jobs[0].Name)
	assert.Equal(t, "b", jobs[1].Name)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no videos", `[paths]
downloads = "d"`, "no videos"},
		{"bad name", `[[videos]]
name = "a/b"
url = "https://example.com/x.m3u8"`, "invalid job name"},
		{"duplicate name", `[[videos]]
name = "a"
url = "https://example.com/1.m3u8"
[[videos]]
name = "a"
url = "https://example.com/2.m3u8"`, "duplicate"},
		{"missing url", `[[videos]]
name = "a"`, "url must not be empty"},
		{"bad duration", `[download]
retry_delay = "soon"
[[videos]]
name = "a"
url = "https://example.com/1.m3u8"`, "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STITCHER_DOWNLOADS", "/env/downloads")
	t.Setenv("STITCHER_FFMPEG", "/env/ffmpeg")
	t.Setenv("STITCHER_HISTORY", "/env/history.db")

	cfg, err := Load(writeConfig(t, `
[[videos]]
name = "a"
url = "https://example.com/a.m3u8"
`))
	require.NoError(t, err)

	assert.Equal(t, "/env/downloads", cfg.Paths.Downloads)
	assert.Equal(t, filepath.Join("/env/downloads", "temp"), cfg.Paths.Temp)
	assert.Equal(t, "/env/ffmpeg", cfg.Join.FFmpeg)
	assert.Equal(t, "/env/history.db", cfg.History.Path)
}

func TestDefaultHistoryPath(t *testing.T) {
	t.Run("with XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "/custom/cache")
		assert.Equal(t, "/custom/cache/stitcher/history.db", DefaultHistoryPath())
	})

	t.Run("without XDG_CACHE_HOME", func(t *testing.T) {
		t.Setenv("XDG_CACHE_HOME", "")
		path := DefaultHistoryPath()
		if !strings.HasSuffix(path, filepath.Join(".cache", "stitcher", "history.db")) {
			t.Errorf("DefaultHistoryPath() = %q, want suffix .cache/stitcher/history.db", path)
		}
	})
}

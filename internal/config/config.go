package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cwygoda/stitcher/internal/domain"
)

// Duration wraps time.Duration so TOML values can be written as "1s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Paths configures the on-disk layout.
type Paths struct {
	Downloads string `toml:"downloads"` // final artifacts: <downloads>/<name>/<name>.<ext>
	Temp      string `toml:"temp"`      // working files: <temp>/<name>/segment_<i>.<ext>
}

// HTTP configures the shared outbound client.
type HTTP struct {
	Timeout   Duration          `toml:"timeout"`
	UserAgent string            `toml:"user_agent"`
	Headers   map[string]string `toml:"headers"`
}

// Download configures the segment fetch layer.
type Download struct {
	MaxAttempts int      `toml:"max_attempts"`
	RetryDelay  Duration `toml:"retry_delay"`
	Workers     int      `toml:"workers"`
	ForceExt    string   `toml:"force_ext"` // override segment extension (e.g. ".ts")
}

// Join configures the remux step.
type Join struct {
	FFmpeg    string `toml:"ffmpeg"`
	OutputExt string `toml:"output_ext"`
}

// History configures the run-history database.
type History struct {
	Path string `toml:"path"`
}

// Video is one configured job entry.
type Video struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Config holds application configuration.
type Config struct {
	Paths    Paths    `toml:"paths"`
	HTTP     HTTP     `toml:"http"`
	Download Download `toml:"download"`
	Join     Join     `toml:"join"`
	History  History  `toml:"history"`
	Videos   []Video  `toml:"videos"`
}

// DefaultHistoryPath returns the default history database path using
// XDG_CACHE_HOME.
func DefaultHistoryPath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "stitcher", "history.db")
}

// Load reads and validates the TOML configuration at path.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Paths.Downloads == "" {
		c.Paths.Downloads = "downloads"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = filepath.Join(c.Paths.Downloads, "temp")
	}
	if c.HTTP.Timeout.Duration == 0 {
		c.HTTP.Timeout.Duration = 30 * time.Second
	}
	if c.Download.MaxAttempts == 0 {
		c.Download.MaxAttempts = 3
	}
	if c.Download.RetryDelay.Duration == 0 {
		c.Download.RetryDelay.Duration = time.Second
	}
	if c.Download.Workers == 0 {
		c.Download.Workers = 4
	}
	if c.Join.FFmpeg == "" {
		c.Join.FFmpeg = "ffmpeg"
	}
	if c.Join.OutputExt == "" {
		c.Join.OutputExt = ".mp4"
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath()
	}
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("STITCHER_DOWNLOADS"); dir != "" {
		c.Paths.Downloads = dir
		c.Paths.Temp = filepath.Join(dir, "temp")
	}
	if ffmpeg := os.Getenv("STITCHER_FFMPEG"); ffmpeg != "" {
		c.Join.FFmpeg = ffmpeg
	}
	if db := os.Getenv("STITCHER_HISTORY"); db != "" {
		c.History.Path = db
	}
}

func (c *Config) validate() error {
	if len(c.Videos) == 0 {
		return fmt.Errorf("config: no videos configured")
	}
	if c.Download.MaxAttempts < 1 {
		return fmt.Errorf("config: download.max_attempts must be >= 1")
	}
	if c.Download.Workers < 1 {
		return fmt.Errorf("config: download.workers must be >= 1")
	}
	seen := make(map[string]bool, len(c.Videos))
	for _, v := range c.Videos {
		if err := v.Job().Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if seen[v.Name] {
			return fmt.Errorf("config: duplicate video name %q", v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

// Job converts a config entry into the domain job type.
func (v Video) Job() domain.VideoJob {
	return domain.VideoJob{Name: v.Name, URL: v.URL}
}

// Jobs returns the configured videos as ordered domain jobs.
func (c *Config) Jobs() []domain.VideoJob {
	jobs := make([]domain.VideoJob, len(c.Videos))
	for i, v := range c.Videos {
		jobs[i] = v.Job()
	}
	return jobs
}

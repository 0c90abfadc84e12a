// Package config loads gallery configuration from GALLERY_* environment variables and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Carmen-Shannon/oxy-gallery/engine/camera"
	"github.com/caarlos0/env/v11"
)

// DefaultFeedAddr is the state feed address used when GALLERY_FEED_ADDR is unset.
const DefaultFeedAddr = "127.0.0.1:7878"

// Config holds everything cmd/gallery needs to build the window, renderer and scene.
type Config struct {
	ContentPath  string `env:"GALLERY_CONTENT" envDefault:"content.toml"`
	WatchContent bool   `env:"GALLERY_WATCH" envDefault:"true"`

	Title  string `env:"GALLERY_TITLE" envDefault:"Gallery"`
	Width  int    `env:"GALLERY_WIDTH" envDefault:"1280"`
	Height int    `env:"GALLERY_HEIGHT" envDefault:"720"`

	TickRate         float64 `env:"GALLERY_TICK_RATE" envDefault:"60"`
	RenderFrameLimit float64 `env:"GALLERY_FRAME_LIMIT" envDefault:"0"`
	Controls         string  `env:"GALLERY_CONTROLS" envDefault:"steer"`
	VSync            bool    `env:"GALLERY_VSYNC" envDefault:"true"`
	MSAA             int     `env:"GALLERY_MSAA" envDefault:"4"`
	SoftwareRenderer bool    `env:"GALLERY_SOFTWARE_RENDERER" envDefault:"false"`
	Profile          bool    `env:"GALLERY_PROFILE" envDefault:"false"`

	FeedAddr    string `env:"GALLERY_FEED_ADDR"`
	AmbienceURL string `env:"GALLERY_AMBIENCE_URL"`
	RepoAPI     string `env:"GALLERY_REPO_API" envDefault:"https://api.github.com"`

	FetchWorkers int           `env:"GALLERY_FETCH_WORKERS" envDefault:"4"`
	FetchTimeout time.Duration `env:"GALLERY_FETCH_TIMEOUT" envDefault:"20s"`
	MaxTexture   int           `env:"GALLERY_MAX_TEXTURE" envDefault:"1024"`
	InitialBatch int           `env:"GALLERY_INITIAL_BATCH" envDefault:"8"`
	LoadDistance float64       `env:"GALLERY_LOAD_DISTANCE" envDefault:"18"`
}

// ParseConfig parses environment and flags into a Config. Flags override the environment.
//
// Parameters:
//   - fs: the flag set to register flags on
//   - args: the command-line arguments without the program name
//
// Returns:
//   - Config: the parsed and validated configuration
//   - error: error if the environment, the flags or validation fail
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	// envDefault would also replace an empty value, which is how the feed is turned off.
	if _, ok := os.LookupEnv("GALLERY_FEED_ADDR"); !ok {
		cfg.FeedAddr = DefaultFeedAddr
	}

	fs.StringVar(&cfg.ContentPath, "content", cfg.ContentPath, "Content file (.toml, .yaml or .yml)")
	fs.BoolVar(&cfg.WatchContent, "watch", cfg.WatchContent, "Rebuild the scene when the content file changes")
	fs.StringVar(&cfg.Title, "title", cfg.Title, "Window title")
	fs.IntVar(&cfg.Width, "width", cfg.Width, "Initial window width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "Initial window height")
	fs.Float64Var(&cfg.TickRate, "tick-rate", cfg.TickRate, "Simulation ticks per second")
	fs.Float64Var(&cfg.RenderFrameLimit, "frame-limit", cfg.RenderFrameLimit, "Render frames per second cap (0 = uncapped)")
	fs.StringVar(&cfg.Controls, "controls", cfg.Controls, "Control scheme: steer or look")
	fs.BoolVar(&cfg.VSync, "vsync", cfg.VSync, "Wait for vertical blank when presenting")
	fs.IntVar(&cfg.MSAA, "msaa", cfg.MSAA, "MSAA sample count (1 disables)")
	fs.BoolVar(&cfg.SoftwareRenderer, "software", cfg.SoftwareRenderer, "Force the software fallback adapter")
	fs.BoolVar(&cfg.Profile, "profile", cfg.Profile, "Log frame and memory statistics")
	fs.StringVar(&cfg.FeedAddr, "feed", cfg.FeedAddr, "State feed listen address (empty disables)")
	fs.StringVar(&cfg.AmbienceURL, "ambience", cfg.AmbienceURL, "Ambience MP3 URL or path (empty disables)")
	fs.StringVar(&cfg.RepoAPI, "repo-api", cfg.RepoAPI, "Repository metadata API base URL")
	fs.IntVar(&cfg.FetchWorkers, "fetch-workers", cfg.FetchWorkers, "Concurrent texture fetches")
	fs.DurationVar(&cfg.FetchTimeout, "fetch-timeout", cfg.FetchTimeout, "Per-request timeout for remote images")
	fs.IntVar(&cfg.MaxTexture, "max-texture", cfg.MaxTexture, "Largest texture edge in pixels")
	fs.IntVar(&cfg.InitialBatch, "initial-batch", cfg.InitialBatch, "Textures requested at startup")
	fs.Float64Var(&cfg.LoadDistance, "load-distance", cfg.LoadDistance, "Camera distance that triggers a texture load")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the gallery cannot run with.
func (c Config) Validate() error {
	var errs []error
	if _, ok := camera.ParseMode(c.Controls); !ok {
		errs = append(errs, fmt.Errorf("controls: unknown scheme %q", c.Controls))
	}
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("window size %dx%d must be positive", c.Width, c.Height))
	}
	if c.ContentPath == "" {
		errs = append(errs, errors.New("content path is required"))
	}
	if c.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick rate %v must be positive", c.TickRate))
	}
	if c.FetchWorkers <= 0 {
		errs = append(errs, fmt.Errorf("fetch workers %d must be positive", c.FetchWorkers))
	}
	if c.MaxTexture <= 0 {
		errs = append(errs, fmt.Errorf("max texture %d must be positive", c.MaxTexture))
	}
	if c.InitialBatch < 0 || c.LoadDistance < 0 {
		errs = append(errs, errors.New("initial batch and load distance must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Mode returns the camera control scheme.
func (c Config) Mode() camera.Mode {
	mode, _ := camera.ParseMode(c.Controls)
	return mode
}

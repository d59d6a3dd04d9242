package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// LiveScene is the value of At that reports the scene as it stands after
// the commands instead of the interpolated state at a timeline instant.
const LiveScene = -1.0

// Isolation modes for the reducer behind each command.
const (
	IsolationGoroutine = "goroutine"
	IsolationProcess   = "process"
)

// Config holds everything a replay run needs. Environment variables set
// the defaults; command-line flags override them.
type Config struct {
	ScenePath    string  `env:"INCIDENT_REPLAY_SCENE"`
	SceneDir     string  `env:"INCIDENT_REPLAY_SCENE_DIR"     envDefault:"input/scenes"`
	CommandsPath string  `env:"INCIDENT_REPLAY_COMMANDS"`
	OutputPath   string  `env:"INCIDENT_REPLAY_OUTPUT"`
	SavePath     string  `env:"INCIDENT_REPLAY_SAVE"`
	QRPath       string  `env:"INCIDENT_REPLAY_QR"`
	AuditPath    string  `env:"INCIDENT_REPLAY_AUDIT"`
	At           float64 `env:"INCIDENT_REPLAY_AT"            envDefault:"-1"`
	Sample       bool    `env:"INCIDENT_REPLAY_SAMPLE"`
	FPS          int     `env:"INCIDENT_REPLAY_FPS"` // 0 = the scene's own rate

	// Pixels per meter for exported geometry; 0 keeps world units.
	PixelScale   float64 `env:"INCIDENT_REPLAY_PIXEL_SCALE"`
	PixelOriginX float64 `env:"INCIDENT_REPLAY_PIXEL_ORIGIN_X"`
	PixelOriginY float64 `env:"INCIDENT_REPLAY_PIXEL_ORIGIN_Y"`

	CommandTimeout  time.Duration `env:"INCIDENT_REPLAY_COMMAND_TIMEOUT"   envDefault:"5s"`
	MaxPayloadBytes int           `env:"INCIDENT_REPLAY_MAX_PAYLOAD_BYTES" envDefault:"65536"`
	Workers         int           `env:"INCIDENT_REPLAY_WORKERS"` // 0 = one per logical CPU
	Isolation       string        `env:"INCIDENT_REPLAY_ISOLATION"         envDefault:"process"`

	ShowStats    bool   `env:"INCIDENT_REPLAY_SHOW_STATS"`
	OTelEndpoint string `env:"INCIDENT_REPLAY_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"INCIDENT_REPLAY_OTEL_ENABLED"  envDefault:"true"`
	// Fraction of root traces kept; child spans follow their parent.
	OTelSampleRatio float64 `env:"INCIDENT_REPLAY_OTEL_SAMPLE_RATIO" envDefault:"1"`
	BuildVersion string
}

// Load reads the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports every setting that cannot be used.
func (c Config) Validate() error {
	var errs []error
	if c.CommandTimeout <= 0 {
		errs = append(errs, fmt.Errorf("command timeout must be positive, got %s", c.CommandTimeout))
	}
	if c.MaxPayloadBytes <= 0 {
		errs = append(errs, fmt.Errorf("max payload bytes must be positive, got %d", c.MaxPayloadBytes))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative, got %d", c.Workers))
	}
	if c.FPS < 0 {
		errs = append(errs, fmt.Errorf("fps cannot be negative, got %d", c.FPS))
	}
	if c.Isolation != IsolationGoroutine && c.Isolation != IsolationProcess {
		errs = append(errs, fmt.Errorf("isolation must be %q or %q, got %q", IsolationGoroutine, IsolationProcess, c.Isolation))
	}
	if c.OTelSampleRatio < 0 || c.OTelSampleRatio > 1 {
		errs = append(errs, fmt.Errorf("trace sample ratio must be within [0, 1], got %g", c.OTelSampleRatio))
	}
	if c.PixelScale < 0 {
		errs = append(errs, fmt.Errorf("pixel scale cannot be negative, got %g", c.PixelScale))
	}
	if c.At < 0 && c.At != LiveScene {
		errs = append(errs, fmt.Errorf("time must be >= 0, got %g", c.At))
	}
	if c.Sample && c.At != LiveScene {
		errs = append(errs, errors.New("-sample and -at are mutually exclusive"))
	}
	return errors.Join(errs...)
}

package aquarium

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config tunes the bubble physics. Zero values are not valid; start from
// DefaultConfig.
type Config struct {
	// Radius of every bubble in pixels.
	Radius float64 `yaml:"radius"`
	// InfluenceRadius is the distance below which a dragged bubble pushes others.
	InfluenceRadius float64 `yaml:"influence_radius"`
	ForceConstant   float64 `yaml:"force_constant"`
	// Damping multiplies each velocity component once per tick.
	Damping float64 `yaml:"damping"`
	// Epsilon is the magnitude below which a velocity component snaps to 0.
	Epsilon float64 `yaml:"epsilon"`
	// VelocityScale scales the push added to a repelled bubble's velocity.
	VelocityScale float64 `yaml:"velocity_scale"`
	// HighlightScale maps the distance ratio to highlight intensity.
	HighlightScale float64 `yaml:"highlight_scale"`
	// HighlightThreshold is the fraction of InfluenceRadius beyond which a
	// highlight is scheduled to clear.
	HighlightThreshold float64 `yaml:"highlight_threshold"`
	// LayoutGap is the spacing between bubbles placed by Load and Add.
	LayoutGap float64 `yaml:"layout_gap"`

	Tick           time.Duration `yaml:"tick"`
	ResumeDelay    time.Duration `yaml:"resume_delay"`
	HighlightDelay time.Duration `yaml:"highlight_delay"`
}

// DefaultConfig returns the tuning the portfolio widget ships with.
func DefaultConfig() Config {
	return Config{
		Radius:             40,
		InfluenceRadius:    150,
		ForceConstant:      8,
		Damping:            0.92,
		Epsilon:            0.05,
		VelocityScale:      1,
		HighlightScale:     0.8,
		HighlightThreshold: 0.9,
		LayoutGap:          20,
		Tick:               30 * time.Millisecond,
		ResumeDelay:        time.Second,
		HighlightDelay:     200 * time.Millisecond,
	}
}

// Validate checks that every value is usable by the physics.
func (c Config) Validate() error {
	switch {
	case c.Radius <= 0:
		return fmt.Errorf("radius must be positive")
	case c.InfluenceRadius <= 0:
		return fmt.Errorf("influence_radius must be positive")
	case c.ForceConstant < 0:
		return fmt.Errorf("force_constant must not be negative")
	case c.Damping <= 0 || c.Damping >= 1:
		return fmt.Errorf("damping must be in (0, 1), got %v", c.Damping)
	case c.Epsilon <= 0:
		return fmt.Errorf("epsilon must be positive")
	case c.VelocityScale < 0:
		return fmt.Errorf("velocity_scale must not be negative")
	case c.HighlightThreshold <= 0 || c.HighlightThreshold > 1:
		return fmt.Errorf("highlight_threshold must be in (0, 1]")
	case c.LayoutGap < 0:
		return fmt.Errorf("layout_gap must not be negative")
	case c.Tick <= 0:
		return fmt.Errorf("tick must be positive")
	case c.ResumeDelay < 0 || c.HighlightDelay < 0:
		return fmt.Errorf("delays must not be negative")
	}
	return nil
}

// LoadConfig reads a YAML tuning file. Keys missing from the file keep their
// DefaultConfig values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read tuning file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse tuning file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid tuning file: %w", err)
	}
	return cfg, nil
}

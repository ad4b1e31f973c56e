// Package config loads the compiler-wide aurac.yaml configuration: the
// optimizer level, oracle step budget, geometry screen bounds, and solver
// timeout. The screen_width/screen_height fields are parsed but not read by
// the geometry verifier, which uses its own fixed 1920x1080 bounds.
package config

import (
	"fmt"
	"os"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the config schema version this build understands.
// Version checks compare the major component only: a config declaring "v1.3" loads
// fine under a "v1.5" compiler, but "v2.0" does not.
const CurrentVersion = "v1.0"

// Config is the full aurac.yaml document.
type Config struct {
	Version string `yaml:"version"`

	Optimizer struct {
		Level int `yaml:"level"` // 0 disables the optimizer entirely
	} `yaml:"optimizer"`

	Oracle struct {
		MaxSteps uint64 `yaml:"max_steps"`
	} `yaml:"oracle"`

	Geometry struct {
		ScreenWidth    int64  `yaml:"screen_width"`
		ScreenHeight   int64  `yaml:"screen_height"`
		SolverTimeout  string `yaml:"solver_timeout"`
	} `yaml:"geometry"`
}

// Default returns the configuration used when no aurac.yaml is present.
func Default() Config {
	c := Config{Version: CurrentVersion}
	c.Optimizer.Level = 1
	c.Oracle.MaxSteps = 1_000_000
	c.Geometry.ScreenWidth = 1920
	c.Geometry.ScreenHeight = 1080
	c.Geometry.SolverTimeout = "2s"
	return c
}

// Load reads and parses path, then checks its declared Version for
// compatibility with CurrentVersion via golang.org/x/mod/semver, the same
// way a Go toolchain checks a module's declared language version against
// its own.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	c := Default()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := checkVersion(c.Version); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// checkVersion accepts any version sharing CurrentVersion's major
// component; a newer minor may add optional fields this build silently
// ignores, but a different major signals an incompatible schema change.
func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid version %q: not a semver string", v)
	}
	if semver.Major(v) != semver.Major(CurrentVersion) {
		return fmt.Errorf("config version %s is incompatible with compiler version %s", v, CurrentVersion)
	}
	return nil
}

package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDt       = 0.001
	DefaultDuration = 10.0
	DefaultG        = 1.0
	DefaultTheta    = 0.5
	DefaultBodies   = 100
	DefaultSpread   = 1.0
	DefaultMaxMass  = 0.01
)

type Config struct {
	Integrator string  `yaml:"integrator"`
	Gravity    string  `yaml:"gravity"`
	Boundary   string  `yaml:"boundary"`
	Collision  string  `yaml:"collision"`
	Resolver   string  `yaml:"resolver"`
	Dt         float64 `yaml:"dt"`
	Duration   float64 `yaml:"duration"`
	G          float64 `yaml:"g"`
	Softening  float64 `yaml:"softening"`
	Seed       int64   `yaml:"seed"`

	Box      BoxConfig      `yaml:"box"`
	Stepping SteppingConfig `yaml:"stepping"`
	Halt     HaltConfig     `yaml:"halt"`
	Init     InitConfig     `yaml:"init"`

	Theta       float64 `yaml:"theta"`
	Restitution float64 `yaml:"restitution"`
}

type BoxConfig struct {
	Size  float64 `yaml:"size"`
	RootX int     `yaml:"root_x"`
	RootY int     `yaml:"root_y"`
	RootZ int     `yaml:"root_z"`
}

type SteppingConfig struct {
	ExactFinishTime bool `yaml:"exact_finish_time"`
	SafeMode        bool `yaml:"safe_mode"`
}

type HaltConfig struct {
	MaxDistance float64 `yaml:"max_distance"`
	MinDistance float64 `yaml:"min_distance"`
}

type InitConfig struct {
	Setup   string  `yaml:"setup"`
	Bodies  int     `yaml:"bodies"`
	Spread  float64 `yaml:"spread"`
	MaxMass float64 `yaml:"max_mass"`
	Radius  float64 `yaml:"radius"`
	Megno   bool    `yaml:"megno"`
}

func DefaultConfig() *Config {
	return &Config{
		Integrator: "leapfrog",
		Gravity:    "direct",
		Boundary:   "none",
		Collision:  "none",
		Resolver:   "bounce",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		G:          DefaultG,
		Box:        BoxConfig{Size: -1, RootX: 1, RootY: 1, RootZ: 1},
		Stepping:   SteppingConfig{ExactFinishTime: true, SafeMode: true},
		Init: InitConfig{
			Setup:   "cluster",
			Bodies:  DefaultBodies,
			Spread:  DefaultSpread,
			MaxMass: DefaultMaxMass,
		},
		Theta:       DefaultTheta,
		Restitution: 0.5,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

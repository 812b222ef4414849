package config

var Presets = map[string]*Config{
	"binary": {
		Integrator: "leapfrog", Gravity: "direct", Dt: 0.001, Duration: 30.0, G: 1,
		Stepping: SteppingConfig{ExactFinishTime: true, SafeMode: true},
		Box:      BoxConfig{Size: -1, RootX: 1, RootY: 1, RootZ: 1},
		Init:     InitConfig{Setup: "binary"},
	},
	"figure_eight": {
		Integrator: "leapfrog", Gravity: "direct", Dt: 0.0005, Duration: 6.32, G: 1,
		Stepping: SteppingConfig{ExactFinishTime: true, SafeMode: true},
		Box:      BoxConfig{Size: -1, RootX: 1, RootY: 1, RootZ: 1},
		Init:     InitConfig{Setup: "figure_eight"},
	},
	"chaos": {
		Integrator: "offset", Gravity: "direct", Dt: 0.0005, Duration: 20.0, G: 1,
		Stepping: SteppingConfig{ExactFinishTime: true, SafeMode: false},
		Box:      BoxConfig{Size: -1, RootX: 1, RootY: 1, RootZ: 1},
		Init:     InitConfig{Setup: "figure_eight", Megno: true},
	},
	"cluster": {
		Integrator: "offset", Gravity: "tree", Boundary: "open", Dt: 0.01, Duration: 10.0, G: 1,
		Softening: 0.01, Theta: 0.5,
		Stepping: SteppingConfig{ExactFinishTime: true, SafeMode: false},
		Box:      BoxConfig{Size: 10, RootX: 2, RootY: 2, RootZ: 1},
		Init:     InitConfig{Setup: "cluster", Bodies: 500, Spread: 3, MaxMass: 0.002},
	},
	"disc": {
		Integrator: "leapfrog", Gravity: "direct", Collision: "direct", Resolver: "merge",
		Dt: 0.002, Duration: 50.0, G: 1,
		Stepping: SteppingConfig{ExactFinishTime: true, SafeMode: true},
		Box:      BoxConfig{Size: -1, RootX: 1, RootY: 1, RootZ: 1},
		Init:     InitConfig{Setup: "disc", Bodies: 200, Radius: 0.005},
	},
}

func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	return names
}

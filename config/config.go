package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"snake-evo/ai"
	"snake-evo/game"
)

// Config is the root configuration structure
type Config struct {
	Seed    uint64         `yaml:"seed"`
	Grid    GridConfig     `yaml:"grid"`
	Agent   ai.Hyperparams `yaml:"agent"`
	Reward  ai.RewardModel `yaml:"reward"`
	Evo     EvoConfig      `yaml:"evo"`
	Display DisplayConfig  `yaml:"display"`
}

// GridConfig defines the playing field. Walls wrap by default; SolidWalls
// turns border cells fatal instead.
type GridConfig struct {
	Width            int  `yaml:"width"`
	Height           int  `yaml:"height"`
	SolidWalls       bool `yaml:"solid_walls"`
	AspectCorrection bool `yaml:"aspect_correction"`
}

// GameConfig converts grid settings into per-game parameters.
func (g GridConfig) GameConfig() game.Config {
	return game.Config{
		Width:            g.Width,
		Height:           g.Height,
		WrapWorld:        !g.SolidWalls,
		AspectCorrection: g.AspectCorrection,
	}
}

// EvoConfig defines evolutionary trainer parameters
type EvoConfig struct {
	Population       int    `yaml:"population"`
	StepLimit        int    `yaml:"step_limit"`
	Workers          int    `yaml:"workers"`
	MaxStepsPerTick  int    `yaml:"max_steps_per_tick"`
	StagnationBase   int    `yaml:"stagnation_base"`
	StagnationGrowth int    `yaml:"stagnation_growth"`
	MaxRestartTiers  int    `yaml:"max_restart_tiers"`
	ChampionPath     string `yaml:"champion_path"`
	AutosaveChampion bool   `yaml:"autosave_champion"`
}

// DisplayConfig defines rendering parameters
type DisplayConfig struct {
	CellSize     int    `yaml:"cell_size"`
	TargetFPS    int    `yaml:"target_fps"`
	StatsDir     string `yaml:"stats_dir"`
	ShowOnlyBest bool   `yaml:"show_only_best"`
}

// Load reads a YAML config file and returns a Config
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Default returns a config with every field at its default value.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Grid.Width == 0 {
		cfg.Grid.Width = 40
	}
	if cfg.Grid.Height == 0 {
		cfg.Grid.Height = 30
	}
	if cfg.Agent == (ai.Hyperparams{}) {
		cfg.Agent = ai.DefaultHyperparams()
	}
	if cfg.Reward == (ai.RewardModel{}) {
		cfg.Reward = ai.DefaultRewardModel()
	}
	if cfg.Evo.Population == 0 {
		cfg.Evo.Population = 10
	}
	if cfg.Evo.StepLimit == 0 {
		cfg.Evo.StepLimit = 4000
	}
	if cfg.Evo.Workers == 0 {
		cfg.Evo.Workers = 8
	}
	if cfg.Evo.MaxStepsPerTick == 0 {
		cfg.Evo.MaxStepsPerTick = 1500
	}
	if cfg.Evo.StagnationBase == 0 {
		cfg.Evo.StagnationBase = 1000
	}
	if cfg.Evo.StagnationGrowth == 0 {
		cfg.Evo.StagnationGrowth = 500
	}
	if cfg.Evo.MaxRestartTiers == 0 {
		cfg.Evo.MaxRestartTiers = 5
	}
	if cfg.Evo.ChampionPath == "" {
		cfg.Evo.ChampionPath = "data/champion.json"
	}
	if cfg.Display.CellSize == 0 {
		cfg.Display.CellSize = 18
	}
	if cfg.Display.TargetFPS == 0 {
		cfg.Display.TargetFPS = 60
	}
	if cfg.Display.StatsDir == "" {
		cfg.Display.StatsDir = "data/runs"
	}
}

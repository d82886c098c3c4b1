package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsFillEverything(t *testing.T) {
	cfg := Default()
	if cfg.Grid.Width == 0 || cfg.Grid.Height == 0 {
		t.Fatal("grid defaults missing")
	}
	if cfg.Evo.Population == 0 || cfg.Evo.StepLimit == 0 {
		t.Fatal("evo defaults missing")
	}
	if cfg.Agent.Gamma == 0 || cfg.Agent.Epsilon == 0 {
		t.Fatal("agent defaults missing")
	}
	if cfg.Reward.Eat == 0 {
		t.Fatal("reward defaults missing")
	}
	if cfg.Grid.SolidWalls {
		t.Fatal("walls should wrap by default")
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	yml := `
grid:
  width: 12
  height: 9
  solid_walls: true
evo:
  population: 24
agent:
  epsilon: 0.5
  min_epsilon: 0.01
  decay: 0.999
  alpha: 0.2
  gamma: 0.9
`
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Grid.Width != 12 || cfg.Grid.Height != 9 || !cfg.Grid.SolidWalls {
		t.Errorf("grid = %+v", cfg.Grid)
	}
	if cfg.Evo.Population != 24 {
		t.Errorf("population = %d", cfg.Evo.Population)
	}
	if cfg.Agent.Epsilon != 0.5 {
		t.Errorf("epsilon = %v", cfg.Agent.Epsilon)
	}
	// Untouched sections still fall back to defaults.
	if cfg.Evo.StepLimit != 4000 {
		t.Errorf("step limit = %d, want default 4000", cfg.Evo.StepLimit)
	}
	if cfg.Reward.Eat == 0 {
		t.Error("reward defaults not applied")
	}
	gc := cfg.Grid.GameConfig()
	if gc.WrapWorld {
		t.Error("solid walls should disable wrapping")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

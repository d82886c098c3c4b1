package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/exp/rand"

	"snake-evo/ai"
	"snake-evo/config"
	"snake-evo/evo"
	"snake-evo/game"
	"snake-evo/qlearning"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	speed := flag.Int("speed", 150, "Manual game speed in milliseconds")
	pop := flag.Int("pop", 0, "Population size override")
	seed := flag.Uint64("seed", 0, "Master RNG seed override")
	onnxModel := flag.String("onnx-model", "", "Path to an ONNX policy model")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Printf("failed to load config %s: %v\n", *configPath, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *pop > 0 {
		cfg.Evo.Population = *pop
	}
	if *seed != 0 {
		cfg.Seed = *seed
	}

	trainer := evo.NewTrainer(cfg)
	stats := NewRunStats(cfg.Display.StatsDir)
	fmt.Printf("Run %s: population %d, grid %dx%d, target %d\n",
		stats.RunID, cfg.Evo.Population, cfg.Grid.Width, cfg.Grid.Height, trainer.TargetScore())

	var dqn *qlearning.DQNBackend
	var onnx *qlearning.ONNXBackend
	if *onnxModel != "" {
		backend, err := qlearning.NewONNXBackend(*onnxModel)
		if err != nil {
			fmt.Printf("failed to load onnx model: %v\n", err)
			os.Exit(1)
		}
		onnx = backend
		trainer.SetBackend(onnx)
		fmt.Printf("Using ONNX policy from %s\n", *onnxModel)
	}

	manualRNG := rand.New(rand.NewSource(cfg.Seed + 9999))
	manual := game.New(cfg.Grid.GameConfig(), manualRNG)

	rl.InitWindow(1280, 800, "Snake Evo - Q-Learning Population")
	rl.SetWindowState(rl.FlagWindowResizable)
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Display.TargetFPS))

	renderer := NewRenderer()

	lastManualUpdate := time.Now()
	manualInterval := time.Duration(*speed) * time.Millisecond

	showOnlyBest := cfg.Display.ShowOnlyBest
	showHelp := false
	ultraFast := false
	frameCounter := 0
	lastEpoch := 0

	for !rl.WindowShouldClose() {
		handleKeys(trainer, cfg, manual, &showOnlyBest, &showHelp, &ultraFast, &dqn, &onnx, *onnxModel)

		if trainer.Training() {
			trainer.Tick()
			stats.Update(trainer)

			// Checkpoint the DQN at epoch boundaries, matching the champion
			// autosave cadence.
			if dqn != nil && trainer.Epoch() != lastEpoch {
				if err := dqn.Checkpoint(); err != nil {
					fmt.Printf("[DQN] autosave failed: %v\n", err)
				}
			}
			lastEpoch = trainer.Epoch()

			// At very high speeds redrawing every frame wastes the budget.
			frameCounter++
			if ultraFast && frameCounter < 8 {
				// Keep the event queue alive while skipping redraws.
				rl.PollInputEvents()
				continue
			}
			frameCounter = 0
			renderer.DrawTraining(trainer, showOnlyBest, showHelp)
			continue
		}

		// Manual play outside training.
		if rl.IsKeyPressed(rl.KeyUp) {
			manual.ChangeDir(game.Up)
		} else if rl.IsKeyPressed(rl.KeyDown) {
			manual.ChangeDir(game.Down)
		} else if rl.IsKeyPressed(rl.KeyLeft) {
			manual.ChangeDir(game.Left)
		} else if rl.IsKeyPressed(rl.KeyRight) {
			manual.ChangeDir(game.Right)
		}

		if time.Since(lastManualUpdate) >= manualInterval {
			manual.Step()
			lastManualUpdate = time.Now()

			// Speed up slightly as the score grows.
			baseMs := *speed - min(manual.Score(), 30)*4
			if baseMs < 30 {
				baseMs = 30
			}
			manualInterval = time.Duration(baseMs) * time.Millisecond
		}
		renderer.DrawManual(manual, showHelp)
	}

	shutdown(trainer, stats, cfg, dqn)
}

// handleKeys processes the control keys shared by both views.
func handleKeys(trainer *evo.Trainer, cfg *config.Config, manual *game.Game,
	showOnlyBest, showHelp, ultraFast *bool,
	dqn **qlearning.DQNBackend, onnx **qlearning.ONNXBackend, onnxModel string) {

	switch {
	case rl.IsKeyPressed(rl.KeyE):
		if !trainer.Training() && trainer.Solved() {
			// Turning training back on after a solve starts a new session.
			trainer.Reset()
		}
		trainer.SetTraining(!trainer.Training())
	case rl.IsKeyPressed(rl.KeyP):
		manual.SetPaused(!manual.Paused())
	case rl.IsKeyPressed(rl.KeyR):
		*manual = *game.New(cfg.Grid.GameConfig(), rand.New(rand.NewSource(uint64(time.Now().UnixNano()))))
	case rl.IsKeyPressed(rl.KeyS):
		if rec, ok := trainer.ChampionRecord(); ok {
			if err := ai.SaveChampion(cfg.Evo.ChampionPath, rec); err != nil {
				fmt.Printf("champion save failed: %v\n", err)
			} else {
				fmt.Printf("champion saved to %s\n", cfg.Evo.ChampionPath)
			}
		}
	case rl.IsKeyPressed(rl.KeyL):
		rec, err := ai.LoadChampion(cfg.Evo.ChampionPath)
		if err != nil {
			fmt.Printf("champion load failed: %v\n", err)
		} else {
			trainer.SeedFromChampion(rec)
		}
	case rl.IsKeyPressed(rl.KeyB):
		*showOnlyBest = !*showOnlyBest
	case rl.IsKeyPressed(rl.KeyU):
		*ultraFast = !*ultraFast
		if *ultraFast {
			trainer.SetMaxStepsPerTick(50000)
		} else {
			trainer.SetMaxStepsPerTick(cfg.Evo.MaxStepsPerTick)
		}
	case rl.IsKeyPressed(rl.KeyW):
		trainer.SetWrapWorld(!trainer.WrapWorld())
	case rl.IsKeyPressed(rl.KeyN):
		if _, active := trainer.Backend().(*qlearning.PolicyNet); active {
			trainer.SetBackend(nil)
			fmt.Println("[tabular] per-agent Q-tables active")
		} else {
			trainer.SetBackend(qlearning.NewPolicyNet())
			fmt.Println("[NN] batched policy network active")
		}
	case rl.IsKeyPressed(rl.KeyJ):
		if _, active := trainer.Backend().(*qlearning.DQNBackend); active {
			trainer.SetBackend(nil)
			trainer.SetWrapWorld(!cfg.Grid.SolidWalls)
			fmt.Println("[tabular] per-agent Q-tables active")
		} else {
			if *dqn == nil {
				*dqn = qlearning.NewDQNBackend(filepath.Join("data", "dqn_weights.gob"), cfg.Seed)
			}
			trainer.SetBackend(*dqn)
			// The DQN trains against solid walls.
			trainer.SetWrapWorld(false)
			fmt.Println("[DQN] deep Q-network backend active")
		}
	case rl.IsKeyPressed(rl.KeyK):
		if _, active := trainer.Backend().(*qlearning.ONNXBackend); active {
			trainer.SetBackend(nil)
			fmt.Println("[tabular] per-agent Q-tables active")
		} else if *onnx != nil {
			trainer.SetBackend(*onnx)
			fmt.Println("[ONNX] external policy model active")
		} else if onnxModel != "" {
			backend, err := qlearning.NewONNXBackend(onnxModel)
			if err != nil {
				fmt.Printf("failed to load onnx model: %v\n", err)
			} else {
				*onnx = backend
				trainer.SetBackend(backend)
				fmt.Println("[ONNX] external policy model active")
			}
		} else {
			fmt.Println("no onnx model configured, start with -onnx-model")
		}
	case rl.IsKeyPressed(rl.KeyO):
		trainer.SetBackend(nil)
		fmt.Println("[tabular] per-agent Q-tables active")
	case rl.IsKeyPressed(rl.KeyKpAdd), rl.IsKeyPressed(rl.KeyEqual):
		trainer.SpeedUp()
	case rl.IsKeyPressed(rl.KeyKpSubtract), rl.IsKeyPressed(rl.KeyMinus):
		trainer.SlowDown()
	case rl.IsKeyPressed(rl.KeyH):
		*showHelp = !*showHelp
	}
}

// shutdown persists the champion, run stats, and any DQN checkpoint.
func shutdown(trainer *evo.Trainer, stats *RunStats, cfg *config.Config, dqn *qlearning.DQNBackend) {
	stats.Update(trainer)
	if err := stats.Save(); err != nil {
		fmt.Printf("run stats save failed: %v\n", err)
	} else {
		fmt.Printf("run stats saved to %s\n", stats.Dir())
	}
	if rec, ok := trainer.ChampionRecord(); ok {
		if err := ai.SaveChampion(cfg.Evo.ChampionPath, rec); err != nil {
			fmt.Printf("champion save failed: %v\n", err)
		}
	}
	if dqn != nil {
		if err := dqn.Checkpoint(); err != nil {
			fmt.Printf("[DQN] final checkpoint failed: %v\n", err)
		}
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

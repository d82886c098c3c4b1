package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"snake-evo/evo"
)

// RunStats records one training run: per-epoch best scores, champion
// progress, and timing. Each run saves under its own UUID directory so
// successive sessions never clobber each other.
type RunStats struct {
	RunID         string        `json:"run_id"`
	StartTime     time.Time     `json:"start_time"`
	EndTime       time.Time     `json:"end_time"`
	Epochs        int           `json:"epochs"`
	EpochBest     []int         `json:"epoch_best"`
	ChampionScore int           `json:"champion_score"`
	ChampionEpoch int           `json:"champion_epoch"`
	TargetScore   int           `json:"target_score"`
	Solved        bool          `json:"solved"`
	Restarts      int           `json:"restarts"`
	Backend       string        `json:"backend"`
	mutex         sync.Mutex
	dir           string
}

// NewRunStats creates the stats record and its run directory.
func NewRunStats(baseDir string) *RunStats {
	s := &RunStats{
		RunID:     uuid.New().String(),
		StartTime: time.Now(),
		Backend:   "tabular",
	}
	s.dir = filepath.Join(baseDir, s.RunID)
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		fmt.Printf("could not create run directory: %v\n", err)
	}
	return s
}

// Update refreshes the record from the trainer's current state.
func (s *RunStats) Update(t *evo.Trainer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Epochs = t.Epoch()
	s.EpochBest = append(s.EpochBest[:0], t.EpochBest()...)
	s.ChampionScore = t.ChampionScore()
	s.ChampionEpoch = t.ChampionEpoch()
	s.TargetScore = t.TargetScore()
	s.Solved = t.Solved()
	s.Restarts = t.RestartCount()
	if b := t.Backend(); b != nil {
		s.Backend = b.Name()
	} else {
		s.Backend = "tabular"
	}
}

// Save writes the record to stats.json inside the run directory.
func (s *RunStats) Save() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.EndTime = time.Now()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling run stats: %v", err)
	}
	path := filepath.Join(s.dir, "stats.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing run stats: %v", err)
	}
	return nil
}

// Dir returns the run's private directory.
func (s *RunStats) Dir() string { return s.dir }

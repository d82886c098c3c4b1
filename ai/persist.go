package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ChampionRecord is the persisted form of the best agent found by a training
// run. Color is deliberately absent: display identity lives with the
// population slot, not with the saved policy.
type ChampionRecord struct {
	Agent *QAgent `json:"agent"`
	Score int     `json:"score"`
	Epoch int     `json:"epoch"`
}

// SaveChampion writes the champion record to a JSON file.
func SaveChampion(filename string, rec ChampionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling champion: %v", err)
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating champion directory: %v", err)
		}
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("error writing champion to file: %v", err)
	}
	return nil
}

// LoadChampion reads a champion record from a JSON file.
func LoadChampion(filename string) (ChampionRecord, error) {
	var rec ChampionRecord
	data, err := os.ReadFile(filename)
	if err != nil {
		return rec, fmt.Errorf("error reading champion file: %v", err)
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("error unmarshaling champion: %v", err)
	}
	if rec.Agent != nil && rec.Agent.Q == nil {
		rec.Agent.Q = make(map[uint32][NumActions]float32)
	}
	return rec, nil
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/theSadeQ/dip-smc-pso-sub019/internal/dynamo"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/pso"
	"github.com/theSadeQ/dip-smc-pso-sub019/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Integrator string             `json:"integrator"`
	Controller string             `json:"controller"`
	Gains      []float64          `json:"gains"`
	Settled    bool               `json:"settled"`
	Failed     bool               `json:"failed"`
	FailReason string             `json:"fail_reason,omitempty"`
	Metrics    map[string]float64 `json:"metrics"`
}

// SaveRun writes one closed-loop run as metadata.json plus a states.csv
// holding time, the six state components, the applied force and the
// sliding surface value per step.
func (s *Store) SaveRun(model, integrator, controller string, gains []float64, dt, duration float64, seed int64, result *sim.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s_%d", model, controller, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Model:      model,
		Timestamp:  time.Now(),
		Seed:       seed,
		Dt:         dt,
		Duration:   duration,
		Integrator: integrator,
		Controller: controller,
		Gains:      gains,
		Settled:    result.Settled,
		Failed:     result.Failed,
		FailReason: result.FailReason,
		Metrics:    result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < dynamo.StateSize; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	header = append(header, "u", "sigma")
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}

		// The initial condition at index 0 has no control sample.
		if i > 0 && i-1 < len(result.Controls) {
			row = append(row,
				strconv.FormatFloat(result.Controls[i-1], 'f', 6, 64),
				strconv.FormatFloat(result.Sigma[i-1], 'f', 6, 64))
		} else {
			row = append(row, "0", "0")
		}

		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

// TuningRecord captures one gain-tuning session: the winning gains and
// the per-iteration convergence history.
type TuningRecord struct {
	ID         string               `json:"id"`
	Controller string               `json:"controller"`
	Timestamp  time.Time            `json:"timestamp"`
	Seed       int64                `json:"seed"`
	BestGains  []float64            `json:"best_gains"`
	BestCost   float64              `json:"best_cost"`
	History    []pso.IterationStats `json:"history"`
}

func (s *Store) SaveTuning(controller string, seed int64, gains []float64, cost float64, history []pso.IterationStats) (string, error) {
	id := fmt.Sprintf("tune_%s_%d", controller, time.Now().Unix())
	dir := filepath.Join(s.baseDir, id)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	record := TuningRecord{
		ID:         id,
		Controller: controller,
		Timestamp:  time.Now(),
		Seed:       seed,
		BestGains:  gains,
		BestCost:   cost,
		History:    history,
	}
	return id, writeJSON(filepath.Join(dir, "tuning.json"), record)
}

func (s *Store) LoadTuning(id string) (*TuningRecord, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "tuning.json"))
	if err != nil {
		return nil, err
	}
	var record TuningRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads a saved trajectory back: per-row values after the
// time column, and the times themselves.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "states.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)

		state := make([]float64, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				continue
			}
			state = append(state, val)
		}
		states = append(states, state)
	}

	return states, times, nil
}

func writeJSON(path string, v any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

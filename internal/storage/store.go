package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcesim/internal/config"
	"github.com/san-kum/forcesim/internal/graph"
	"github.com/san-kum/forcesim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	layoutFile    = "layout.json"
	positionsFile = "positions.csv"
	historyFile   = "history.csv"
	configFile    = "config.yaml"
)

var ErrNoRun = errors.New("storage: run not found")

// Store keeps one directory per run below baseDir.
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
	Source     string             `json:"source"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Nodes      int                `json:"nodes"`
	Links      int                `json:"links"`
	Ticks      int                `json:"ticks"`
	Settled    bool               `json:"settled"`
	Seed       uint64             `json:"seed"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a settled layout with its configuration and per-tick
// history. source names the input graph and is informational.
func (s *Store) Save(source string, cfg *config.Config, layout *graph.Graph, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%s", now.Format("20060102-150405"), uuid.NewString()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Source:     source,
		Timestamp:  now,
		Integrator: cfg.Integrator,
		Nodes:      len(layout.Nodes),
		Links:      len(layout.Links),
		Ticks:      result.Ticks,
		Settled:    result.Settled,
		Seed:       cfg.Placement.Seed,
		Metrics:    result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := graph.ExportJSON(layout, filepath.Join(runDir, layoutFile)); err != nil {
		return "", err
	}
	if err := config.Save(filepath.Join(runDir, configFile), cfg); err != nil {
		return "", err
	}
	if err := writePositions(filepath.Join(runDir, positionsFile), layout); err != nil {
		return "", err
	}
	if err := writeHistory(filepath.Join(runDir, historyFile), result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func writePositions(path string, layout *graph.Graph) error {
	return writeCSV(path, []string{"id", "x", "y", "fixed"}, func(w *csv.Writer) error {
		for _, n := range layout.Nodes {
			if !n.Placed() {
				continue
			}
			row := []string{n.ID, formatFloat(*n.X), formatFloat(*n.Y), strconv.FormatBool(n.Fixed)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeHistory(path string, result *sim.Result) error {
	return writeCSV(path, []string{"tick", "alpha", "energy"}, func(w *csv.Writer) error {
		for i := range result.Alpha {
			energy := 0.0
			if i < len(result.Energy) {
				energy = result.Energy[i]
			}
			row := []string{strconv.Itoa(i + 1), formatFloat(result.Alpha[i]), strconv.FormatFloat(energy, 'g', -1, 64)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns all runs, oldest first. Directories without readable
// metadata are skipped.
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
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) path(runID, name string) (string, error) {
	dir := filepath.Join(s.baseDir, runID)
	if filepath.Base(dir) != runID {
		return "", fmt.Errorf("%w: %s", ErrNoRun, runID)
	}
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNoRun, runID)
	}
	return filepath.Join(dir, name), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	path, err := s.path(runID, metadataFile)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadLayout returns the stored graph with settled coordinates.
func (s *Store) LoadLayout(runID string) (*graph.Graph, error) {
	path, err := s.path(runID, layoutFile)
	if err != nil {
		return nil, err
	}
	return graph.ImportJSON(path)
}

func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	path, err := s.path(runID, configFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[1:], nil
}

func (s *Store) LoadPositions(runID string) (map[string]r2.Vec, error) {
	path, err := s.path(runID, positionsFile)
	if err != nil {
		return nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	pos := make(map[string]r2.Vec, len(records))
	for _, rec := range records {
		x, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("positions %s: %w", rec[0], err)
		}
		y, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("positions %s: %w", rec[0], err)
		}
		pos[rec[0]] = r2.Vec{X: x, Y: y}
	}
	return pos, nil
}

// LoadHistory returns alpha and kinetic energy after each tick.
func (s *Store) LoadHistory(runID string) (alpha, energy []float64, err error) {
	path, err := s.path(runID, historyFile)
	if err != nil {
		return nil, nil, err
	}
	records, err := readCSV(path)
	if err != nil {
		return nil, nil, err
	}

	alpha = make([]float64, 0, len(records))
	energy = make([]float64, 0, len(records))
	for _, rec := range records {
		a, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			continue
		}
		e, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			continue
		}
		alpha = append(alpha, a)
		energy = append(energy, e)
	}
	return alpha, energy, nil
}

package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/growthrates/internal/dynamo"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
	catalog *Catalog
	logger  log.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: log.NewNopLogger()}
}

func (s *Store) SetLogger(l log.Logger) {
	if l != nil {
		s.logger = l
	}
}

// WithCatalog makes Save index every run in c.
func (s *Store) WithCatalog(c *Catalog) *Store {
	s.catalog = c
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Timestamp  time.Time          `json:"timestamp"`
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Adaptive   bool               `json:"adaptive,omitempty"`
	Tolerance  float64            `json:"tolerance,omitempty"`
	Outputs    int                `json:"outputs"`
	Params     map[string]float64 `json:"params"`
	InitState  []float64          `json:"init_state"`
	Steps      int                `json:"steps"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Series is the recorded trajectory of a run.
type Series struct {
	Times   []float64
	States  [][]float64
	Outputs [][]float64
}

// Save writes meta and the trajectory of result into a new run directory
// and returns its id. ID, Timestamp, Steps and Metrics are filled from the
// result. Non-finite metrics cannot be encoded as JSON and are left out.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	runID, runDir, err := s.newRunDir(meta.Model)
	if err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = time.Now()
	meta.Steps = result.StepsTaken
	meta.Metrics = make(map[string]float64, len(result.Metrics))
	for name, v := range result.Metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			level.Debug(s.logger).Log("msg", "dropping non-finite metric", "run", runID, "metric", name, "value", v)
			continue
		}
		meta.Metrics[name] = v
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}

	if s.catalog != nil {
		if err := s.catalog.Put(meta, runDir); err != nil {
			return runID, fmt.Errorf("index run %s: %w", runID, err)
		}
	}

	level.Info(s.logger).Log("msg", "run saved", "run", runID, "dir", runDir, "points", len(result.Times))
	return runID, nil
}

func (s *Store) newRunDir(model string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	stamp := time.Now().UnixNano()
	for i := 0; ; i++ {
		runID := fmt.Sprintf("%s_%d", model, stamp)
		if i > 0 {
			runID = fmt.Sprintf("%s_%d_%d", model, stamp, i)
		}
		runDir := filepath.Join(s.baseDir, runID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			return runID, runDir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeStates(path string, result *dynamo.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if len(result.States) == 0 {
		w.Flush()
		return w.Error()
	}

	dim := len(result.States[0])
	nout := 0
	for _, out := range result.Outputs {
		nout = max(nout, len(out))
	}

	header := []string{"time"}
	for i := 0; i < dim; i++ {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	for i := 0; i < nout; i++ {
		header = append(header, fmt.Sprintf("y%d", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for i, x := range result.States {
		row = append(row[:0], formatFloat(result.Times[i]))
		for _, v := range x {
			row = append(row, formatFloat(v))
		}
		var out []float64
		if i < len(result.Outputs) {
			out = result.Outputs[i]
		}
		for j := 0; j < nout; j++ {
			if j < len(out) {
				row = append(row, formatFloat(out[j]))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every run, oldest first.
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
			level.Debug(s.logger).Log("msg", "skipping directory", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode %s metadata: %w", runID, err)
	}
	return &meta, nil
}

// LoadSeries reads back the trajectory written by Save.
func (s *Store) LoadSeries(runID string) (*Series, error) {
	file, err := s.openStates(runID)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	series := &Series{}
	if len(records) < 2 {
		return series, nil
	}

	dim, nout := 0, 0
	for _, col := range records[0][1:] {
		switch {
		case strings.HasPrefix(col, "x"):
			dim++
		case strings.HasPrefix(col, "y"):
			nout++
		}
	}

	for i, record := range records[1:] {
		if len(record) != 1+dim+nout {
			return nil, fmt.Errorf("%s row %d: got %d fields, want %d", statesFile, i+2, len(record), 1+dim+nout)
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", statesFile, i+2, err)
		}

		state := make([]float64, dim)
		for j := range state {
			if state[j], err = strconv.ParseFloat(record[1+j], 64); err != nil {
				return nil, fmt.Errorf("%s row %d: %w", statesFile, i+2, err)
			}
		}

		var out []float64
		for j := 0; j < nout; j++ {
			field := record[1+dim+j]
			if field == "" {
				break
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", statesFile, i+2, err)
			}
			out = append(out, v)
		}

		series.Times = append(series.Times, t)
		series.States = append(series.States, state)
		series.Outputs = append(series.Outputs, out)
	}

	return series, nil
}

func (s *Store) openStates(runID string) (*os.File, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, statesFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	return f, nil
}

package storage

import (
	"encoding/json"
	"io"
	"math"
)

type ExportData struct {
	Run     RunMetadata `json:"run"`
	Times   []float64   `json:"times"`
	States  [][]float64 `json:"states"`
	Outputs [][]float64 `json:"outputs,omitempty"`
}

// ExportJSON writes a saved run, metadata and trajectory, as one document.
// Outputs containing -Inf (log of zero biomass) cannot be encoded and are
// omitted in that case.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	series, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		Run:    *meta,
		Times:  series.Times,
		States: series.States,
	}
	if allFinite(series.Outputs) {
		data.Outputs = series.Outputs
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// ExportCSV copies the run's states.csv to w.
func (s *Store) ExportCSV(w io.Writer, runID string) error {
	f, err := s.openStates(runID)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}

func allFinite(rows [][]float64) bool {
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

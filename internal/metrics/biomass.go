package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/growthrates/internal/dynamo"
)

// FinalBiomass reports the total of the state vector at the last observation.
type FinalBiomass struct {
	name  string
	value float64
}

func NewFinalBiomass() *FinalBiomass {
	return &FinalBiomass{name: "final_biomass"}
}

func (f *FinalBiomass) Name() string { return f.name }

func (f *FinalBiomass) Observe(x dynamo.State, out []float64, t float64) {
	f.value = floats.Sum(x)
}

func (f *FinalBiomass) Value() float64 { return f.value }
func (f *FinalBiomass) Reset()         { f.value = 0 }

// MaxBiomass reports the peak total biomass.
type MaxBiomass struct {
	name    string
	peak    float64
	samples int
}

func NewMaxBiomass() *MaxBiomass {
	return &MaxBiomass{name: "max_biomass"}
}

func (m *MaxBiomass) Name() string { return m.name }

func (m *MaxBiomass) Observe(x dynamo.State, out []float64, t float64) {
	total := floats.Sum(x)
	if m.samples == 0 || total > m.peak {
		m.peak = total
	}
	m.samples++
}

func (m *MaxBiomass) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.peak
}

func (m *MaxBiomass) Reset() {
	m.peak = 0
	m.samples = 0
}

// SpecificRate reports the largest observed specific growth rate,
// d ln(N)/dt between consecutive observations of total biomass N.
type SpecificRate struct {
	name    string
	rates   []float64
	prevLog float64
	prevT   float64
	samples int
}

func NewSpecificRate() *SpecificRate {
	return &SpecificRate{name: "mumax_observed"}
}

func (s *SpecificRate) Name() string { return s.name }

func (s *SpecificRate) Observe(x dynamo.State, out []float64, t float64) {
	total := floats.Sum(x)
	if total <= 0 {
		s.samples = 0
		return
	}
	lnN := math.Log(total)
	if s.samples > 0 && t > s.prevT {
		s.rates = append(s.rates, (lnN-s.prevLog)/(t-s.prevT))
	}
	s.prevLog, s.prevT = lnN, t
	s.samples++
}

func (s *SpecificRate) Value() float64 {
	if len(s.rates) == 0 {
		return 0
	}
	return floats.Max(s.rates)
}

func (s *SpecificRate) Reset() {
	s.rates = s.rates[:0]
	s.prevLog, s.prevT = 0, 0
	s.samples = 0
}

// DoublingTime is ln 2 over the largest observed specific growth rate.
// It is +Inf when the population never grows.
type DoublingTime struct {
	rate *SpecificRate
}

func NewDoublingTime() *DoublingTime {
	return &DoublingTime{rate: NewSpecificRate()}
}

func (d *DoublingTime) Name() string { return "doubling_time" }

func (d *DoublingTime) Observe(x dynamo.State, out []float64, t float64) {
	d.rate.Observe(x, out, t)
}

func (d *DoublingTime) Value() float64 {
	mu := d.rate.Value()
	if mu <= 0 {
		return math.Inf(1)
	}
	return math.Ln2 / mu
}

func (d *DoublingTime) Reset() { d.rate.Reset() }

// Defaults returns a fresh set of the growth metrics.
func Defaults() []dynamo.Metric {
	return []dynamo.Metric{
		NewFinalBiomass(),
		NewMaxBiomass(),
		NewSpecificRate(),
		NewDoublingTime(),
	}
}

package sweep

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/san-kum/growthrates/internal/dynamo"
	"github.com/san-kum/growthrates/internal/experiment"
)

var ErrEmptyGrid = errors.New("sweep: empty grid")

// Grid is the cartesian product of named parameter values.
type Grid struct {
	paramNames []string
	ranges     [][]float64
}

func NewGrid(params []string, ranges [][]float64) (*Grid, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, fmt.Errorf("%w: %d names for %d ranges", ErrEmptyGrid, len(params), len(ranges))
	}
	seen := make(map[string]bool, len(params))
	for i, name := range params {
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("%w: no values for %s", ErrEmptyGrid, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("sweep: parameter %s listed twice", name)
		}
		seen[name] = true
	}
	return &Grid{paramNames: params, ranges: ranges}, nil
}

// Linspace returns n evenly spaced values over [lo, hi].
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

func (g *Grid) Size() int {
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Points enumerates the grid with the last parameter varying fastest.
func (g *Grid) Points() []map[string]float64 {
	points := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, make(map[string]float64, len(g.paramNames)), &points)
	return points
}

func (g *Grid) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}

	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		current[name] = val
		g.enumerate(depth+1, current, out)
	}
}

type Point struct {
	Params  map[string]float64
	Metrics map[string]float64
	Err     error
}

// Builder returns a set up experiment for one grid point. params holds
// only the swept values; the builder merges them with the fixed ones.
type Builder func(params map[string]float64) (*experiment.Experiment, error)

type Runner struct {
	Workers int
	Logger  log.Logger
}

// Run evaluates every grid point concurrently and returns one Point per
// combination in grid order. A point whose experiment cannot be built or
// whose run fails carries the error; the sweep itself only fails when no
// point could be built.
func (r Runner) Run(ctx context.Context, g *Grid, build Builder) ([]Point, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	params := g.Points()
	points := make([]Point, len(params))

	var (
		members []dynamo.Member
		index   []int
		cfg     dynamo.Config
	)
	for i, p := range params {
		points[i].Params = p

		exp, err := build(p)
		if err != nil {
			points[i].Err = err
			level.Warn(logger).Log("msg", "skipping grid point", "params", fmt.Sprint(p), "err", err)
			continue
		}
		if exp.Simulator() == nil {
			points[i].Err = experiment.ErrNotSetup
			continue
		}
		if len(members) == 0 {
			cfg = exp.SimConfig()
		}
		members = append(members, dynamo.Member{
			Sim: exp.Simulator(),
			X0:  dynamo.State(exp.Config().InitState).Clone(),
		})
		index = append(index, i)
	}

	if len(members) == 0 {
		return points, fmt.Errorf("%w: no point could be built", ErrEmptyGrid)
	}

	level.Info(logger).Log("msg", "sweep started", "points", len(members), "workers", r.Workers)
	results, errs := dynamo.NewEnsemble(members, r.Workers).RunAll(ctx, cfg)

	for j, i := range index {
		if errs[j] != nil {
			points[i].Err = errs[j]
			continue
		}
		points[i].Metrics = results[j].Metrics
	}

	if err := ctx.Err(); err != nil {
		return points, err
	}
	return points, nil
}

// Best returns the successful point with the lowest (or highest when
// maximize is set) finite value of metric.
func Best(points []Point, metric string, maximize bool) (Point, bool) {
	var (
		best  Point
		found bool
	)
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		v, ok := p.Metrics[metric]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if !found {
			best, found = p, true
			continue
		}
		cur := best.Metrics[metric]
		if (maximize && v > cur) || (!maximize && v < cur) {
			best = p
		}
	}
	return best, found
}

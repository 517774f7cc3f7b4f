package growth_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/growthrates/internal/growth"
)

var _ = Describe("TwoStep", func() {
	var (
		m    *growth.TwoStep
		ydot []float64
		yout []float64
	)

	BeforeEach(func() {
		m = growth.NewTwoStep()
		Expect(growth.Init(m, []float64{0.5, 1.0, 10.0})).To(Succeed())
		ydot = make([]float64, 2)
		yout = []float64{-1, -1}
	})

	It("declares its layout", func() {
		Expect(m.NumParams()).To(Equal(3))
		Expect(m.StateDim()).To(Equal(2))
		Expect(m.MinOutputs()).To(Equal(1))
		Expect(m.NumOutputs()).To(Equal(2))
		Expect(m.ParamNames()).To(Equal([]string{"kw", "mu", "K"}))
	})

	It("delivers its storage exactly once", func() {
		calls := 0
		m.Initialize(func(n int, buf []float64) {
			calls++
			Expect(n).To(Equal(3))
			Expect(buf).To(HaveLen(3))
		})
		Expect(calls).To(Equal(1))
	})

	It("evaluates the reference scenario", func() {
		Expect(m.Derivs(2, 0, []float64{1, 0}, ydot, yout, 1)).To(Succeed())
		Expect(ydot[0]).To(BeNumerically("~", -0.5, 1e-12))
		Expect(ydot[1]).To(BeNumerically("~", 0.5, 1e-12))
		Expect(yout[0]).To(BeNumerically("~", 1.0, 1e-12))
		Expect(yout[1]).To(Equal(-1.0), "log output is only written for nout >= 2")
	})

	It("writes the log of total biomass when two outputs are requested", func() {
		y := []float64{2.5, 4.25}
		Expect(m.Derivs(2, 0, y, ydot, yout, 2)).To(Succeed())
		sum := y[0] + y[1]
		Expect(math.Abs(yout[0]-sum) / sum).To(BeNumerically("<=", 1e-12))
		Expect(yout[1]).To(BeNumerically("~", math.Log(sum), 1e-12))
	})

	It("ignores time", func() {
		y := []float64{3, 2}
		other := make([]float64, 2)
		Expect(m.Derivs(2, 0, y, ydot, yout, 2)).To(Succeed())
		Expect(m.Derivs(2, 123.4, y, other, yout, 2)).To(Succeed())
		Expect(other).To(Equal(ydot))
	})

	It("decouples the lag pool when the transition rate is zero", func() {
		Expect(growth.Init(m, []float64{0, 1.0, 10.0})).To(Succeed())
		for _, lag := range []float64{0, 1, 7.5, 1e6, -3} {
			Expect(m.Derivs(2, 0, []float64{lag, 1}, ydot, yout, 1)).To(Succeed())
			Expect(ydot[0]).To(BeZero())
		}
	})

	It("reduces to single-pool logistic growth without a lag pool", func() {
		for _, active := range []float64{0.1, 2, 5, 9.9, 12} {
			Expect(m.Derivs(2, 0, []float64{0, active}, ydot, yout, 1)).To(Succeed())
			Expect(ydot[0]).To(BeZero())
			Expect(ydot[1]).To(BeNumerically("~", 1.0*(1-active/10.0)*active, 1e-12))
		}
	})

	It("matches the generalized logistic model in the same limit", func() {
		gl := growth.NewGenLogisticWith(growth.GenLogisticParams{
			MaxGrowthRate: 1.0, Capacity: 10.0, Alpha: 1, Beta: 1, Gamma: 1,
		})
		gdot := make([]float64, 1)
		Expect(m.Derivs(2, 0, []float64{0, 4}, ydot, yout, 1)).To(Succeed())
		Expect(gl.Derivs(1, 0, []float64{4}, gdot, nil, 0)).To(Succeed())
		Expect(ydot[1]).To(BeNumerically("~", gdot[0], 1e-12))
	})

	Context("with an insufficient output request", func() {
		It("fails and leaves the buffers untouched", func() {
			ydot = []float64{42, 42}
			err := m.Derivs(2, 0, []float64{1, 0}, ydot, yout, 0)
			Expect(err).To(MatchError(growth.ErrInsufficientOutputRequest))

			var reqErr *growth.OutputRequestError
			Expect(errors.As(err, &reqErr)).To(BeTrue())
			Expect(reqErr.Required).To(Equal(1))
			Expect(reqErr.Requested).To(Equal(0))

			Expect(yout).To(Equal([]float64{-1, -1}))
			Expect(ydot).To(Equal([]float64{42, 42}))
		})

		It("rejects the negative sentinel", func() {
			Expect(m.Derivs(2, 0, []float64{1, 0}, ydot, yout, -1)).To(MatchError(growth.ErrInsufficientOutputRequest))
		})
	})

	It("rejects an output buffer shorter than the request", func() {
		Expect(m.Derivs(2, 0, []float64{1, 0}, ydot, make([]float64, 1), 2)).To(MatchError(growth.ErrShortOutput))
	})

	It("rejects a mismatched state dimension", func() {
		Expect(m.Derivs(3, 0, []float64{1, 0, 0}, make([]float64, 3), yout, 2)).To(MatchError(growth.ErrStateDim))
		Expect(m.Derivs(2, 0, []float64{1}, ydot, yout, 2)).To(MatchError(growth.ErrStateDim))
	})

	It("propagates NaN instead of failing", func() {
		Expect(growth.Init(m, []float64{0.5, 1.0, 10.0})).To(Succeed())
		Expect(m.Derivs(2, 0, []float64{-1, -1}, ydot, yout, 2)).To(Succeed())
		Expect(math.IsNaN(yout[1])).To(BeTrue())
	})

	It("round-trips named parameters through the flat layout", func() {
		p := growth.TwoStepParams{TransitionRate: 0.2, GrowthRate: 0.8, Capacity: 3}
		back, err := growth.TwoStepParamsFromVector(p.Vector())
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(p))

		_, err = growth.TwoStepParamsFromVector([]float64{1, 2})
		Expect(err).To(MatchError(growth.ErrParamCount))
	})
})

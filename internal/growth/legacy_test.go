package growth_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/growthrates/internal/growth"
)

var _ = Describe("TwoStepShared", func() {
	var m *growth.TwoStepShared

	BeforeEach(func() {
		m = growth.NewTwoStepShared()
		Expect(growth.Init(m, []float64{0.5, 10})).To(Succeed())
	})

	It("requires two outputs", func() {
		Expect(m.MinOutputs()).To(Equal(2))
		err := m.Derivs(2, 0, []float64{1, 0}, make([]float64, 2), make([]float64, 2), 1)
		Expect(err).To(MatchError(growth.ErrInsufficientOutputRequest))
	})

	It("uses one rate for transition and growth", func() {
		ydot := make([]float64, 2)
		yout := make([]float64, 2)
		Expect(m.Derivs(2, 0, []float64{1, 2}, ydot, yout, 2)).To(Succeed())

		ref := growth.NewTwoStepWith(growth.TwoStepParams{TransitionRate: 0.5, GrowthRate: 0.5, Capacity: 10})
		want := make([]float64, 2)
		Expect(ref.Derivs(2, 0, []float64{1, 2}, want, make([]float64, 2), 2)).To(Succeed())
		Expect(ydot).To(Equal(want))
		Expect(yout[0]).To(Equal(3.0))
		Expect(yout[1]).To(BeNumerically("~", math.Log(3), 1e-12))
	})

	It("takes (mu, K) and rejects the old three-value vector", func() {
		Expect(m.NumParams()).To(Equal(2))
		Expect(growth.Init(m, []float64{0.7, 12, 0})).To(MatchError(growth.ErrParamCount))
		Expect(growth.Params(m)).To(Equal([]float64{0.5, 10}))
	})
})

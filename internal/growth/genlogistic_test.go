package growth_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/growthrates/internal/growth"
)

var _ = Describe("GenLogistic", func() {
	var (
		m    *growth.GenLogistic
		ydot []float64
	)

	BeforeEach(func() {
		m = growth.NewGenLogistic()
		Expect(growth.Init(m, []float64{1.0, 10.0, 1, 1, 1})).To(Succeed())
		ydot = make([]float64, 1)
	})

	It("declares its layout", func() {
		Expect(m.NumParams()).To(Equal(5))
		Expect(m.StateDim()).To(Equal(1))
		Expect(m.MinOutputs()).To(BeZero())
		Expect(m.NumOutputs()).To(BeZero())
	})

	It("peaks at half capacity for the classical logistic shape", func() {
		Expect(m.Derivs(1, 0, []float64{5.0}, ydot, nil, 0)).To(Succeed())
		Expect(ydot[0]).To(BeNumerically("~", 2.5, 1e-12))
		Expect(ydot[0] / 5.0).To(BeNumerically("~", 0.5, 1e-12), "per-capita rate is half of mumax")
	})

	DescribeTable("reduces to the classical logistic equation",
		func(mumax, k, y float64) {
			Expect(growth.Init(m, []float64{mumax, k, 1, 1, 1})).To(Succeed())
			Expect(m.Derivs(1, 0, []float64{y}, ydot, nil, 0)).To(Succeed())
			Expect(ydot[0]).To(BeNumerically("~", mumax*y*(1-y/k), 1e-12))
		},
		Entry("midpoint", 1.0, 10.0, 5.0),
		Entry("early", 0.3, 100.0, 0.01),
		Entry("at capacity", 2.0, 4.0, 4.0),
		Entry("above capacity", 1.0, 10.0, 12.0),
	)

	It("applies the shape exponents", func() {
		p := growth.GenLogisticParams{MaxGrowthRate: 0.7, Capacity: 8, Alpha: 0.5, Beta: 2, Gamma: 1.5}
		Expect(growth.Init(m, p.Vector())).To(Succeed())
		y := 3.0
		want := 0.7 * math.Pow(y, 0.5) * math.Pow(1-math.Pow(y/8, 2), 1.5)
		Expect(m.Derivs(1, 0, []float64{y}, ydot, nil, 0)).To(Succeed())
		Expect(ydot[0]).To(BeNumerically("~", want, 1e-12))
		Expect(m.Params()).To(Equal(p))
	})

	It("propagates NaN for negative bases with fractional exponents", func() {
		Expect(growth.Init(m, []float64{1.0, 10.0, 0.5, 1, 1})).To(Succeed())
		Expect(m.Derivs(1, 0, []float64{-2}, ydot, nil, 0)).To(Succeed())
		Expect(math.IsNaN(ydot[0])).To(BeTrue())

		Expect(growth.Init(m, []float64{1.0, 10.0, 1, 1, 0.5})).To(Succeed())
		Expect(m.Derivs(1, 0, []float64{20}, ydot, nil, 0)).To(Succeed())
		Expect(math.IsNaN(ydot[0])).To(BeTrue())
	})

	It("tolerates extra output requests without writing outputs", func() {
		yout := []float64{-1}
		Expect(m.Derivs(1, 0, []float64{5}, ydot, yout, 1)).To(Succeed())
		Expect(yout[0]).To(Equal(-1.0))
	})

	It("rejects a negative output request", func() {
		ydot[0] = 42
		Expect(m.Derivs(1, 0, []float64{5}, ydot, nil, -1)).To(MatchError(growth.ErrInsufficientOutputRequest))
		Expect(ydot[0]).To(Equal(42.0))
	})
})

package growth_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/growthrates/internal/growth"
)

var _ = Describe("Init", func() {
	models := func() []growth.Model {
		return []growth.Model{growth.NewTwoStep(), growth.NewGenLogistic(), growth.NewTwoStepShared()}
	}

	It("starts from zero parameters", func() {
		for _, m := range models() {
			Expect(growth.Params(m)).To(Equal(make([]float64, m.NumParams())), m.Name())
		}
	})

	It("fully overwrites the previous run's parameters", func() {
		for _, m := range models() {
			first := make([]float64, m.NumParams())
			second := make([]float64, m.NumParams())
			for i := range first {
				first[i] = float64(i + 1)
				second[i] = -float64(10 * (i + 1))
			}
			Expect(growth.Init(m, first)).To(Succeed())
			Expect(growth.Init(m, second)).To(Succeed())
			Expect(growth.Params(m)).To(Equal(second), m.Name())
		}
	})

	It("rejects a wrong-length vector without a partial update", func() {
		m := growth.NewTwoStep()
		Expect(growth.Init(m, []float64{0.5, 1, 10})).To(Succeed())
		Expect(growth.Init(m, []float64{9, 9})).To(MatchError(growth.ErrParamCount))
		Expect(growth.Params(m)).To(Equal([]float64{0.5, 1, 10}))
	})

	It("keeps separate instances independent", func() {
		a, b := growth.NewTwoStep(), growth.NewTwoStep()
		Expect(growth.Init(a, []float64{1, 2, 3})).To(Succeed())
		Expect(growth.Init(b, []float64{4, 5, 6})).To(Succeed())
		Expect(a.Params().Capacity).To(Equal(3.0))
		Expect(b.Params().Capacity).To(Equal(6.0))
	})

	It("lets the host write through the delivered buffer", func() {
		m := growth.NewGenLogistic()
		m.Initialize(func(n int, buf []float64) {
			for i := 0; i < n; i++ {
				buf[i] = 1
			}
		})
		Expect(m.Params()).To(Equal(growth.GenLogisticParams{MaxGrowthRate: 1, Capacity: 1, Alpha: 1, Beta: 1, Gamma: 1}))
	})
})

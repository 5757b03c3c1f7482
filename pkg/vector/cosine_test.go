package vector

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Cosine", func() {
	It("returns 1 for identical vectors", func() {
		v := []float32{0.5, 0.2, 0.8}
		Expect(Cosine(v, v)).To(BeNumerically("~", 1.0, 0.0001))
	})

	It("returns 0 for orthogonal vectors", func() {
		a := []float32{1, 0}
		b := []float32{0, 1}
		Expect(Cosine(a, b)).To(BeNumerically("~", 0.0, 0.0001))
	})

	It("returns -1 for opposite vectors", func() {
		a := []float32{1, 0}
		b := []float32{-1, 0}
		Expect(Cosine(a, b)).To(BeNumerically("~", -1.0, 0.0001))
	})

	It("returns 0 on dimension mismatch", func() {
		a := []float32{1, 0}
		b := []float32{1, 0, 0}
		Expect(Cosine(a, b)).To(BeZero())
	})

	It("returns 0 for zero-magnitude vectors", func() {
		a := []float32{0, 0}
		b := []float32{1, 1}
		Expect(Cosine(a, b)).To(BeZero())
	})
})

var _ = Describe("ClampScore", func() {
	It("passes through scores already in range", func() {
		Expect(ClampScore(0.4)).To(BeNumerically("~", 0.4, 0.0001))
	})

	It("clamps negative scores to 0", func() {
		Expect(ClampScore(-0.2)).To(BeZero())
	})

	It("clamps scores above 1 to 1", func() {
		Expect(ClampScore(1.7)).To(Equal(float32(1.0)))
	})
})

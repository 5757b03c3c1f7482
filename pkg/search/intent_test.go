package search

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Classify", func() {
	Describe("wildcard queries", func() {
		It("classifies an empty query as wildcard", func() {
			intent := Classify("")
			Expect(intent.Type).To(Equal(IntentWildcard))
			Expect(intent.Confidence).To(Equal(1.0))
		})

		It("classifies a whitespace-only query as wildcard", func() {
			intent := Classify("   ")
			Expect(intent.Type).To(Equal(IntentWildcard))
		})

		It("classifies '*' as wildcard", func() {
			intent := Classify("*")
			Expect(intent.Type).To(Equal(IntentWildcard))
			Expect(intent.IsSpecialPattern).To(BeFalse())
		})

		It("classifies '%' and '* *' as wildcard", func() {
			Expect(Classify("%").Type).To(Equal(IntentWildcard))
			Expect(Classify("* *").Type).To(Equal(IntentWildcard))
		})
	})

	Describe("technical identifiers", func() {
		It("classifies a UUID with high confidence", func() {
			intent := Classify("550e8400-e29b-41d4-a716-446655440000")
			Expect(intent.Type).To(Equal(IntentTechnicalIdentifier))
			Expect(intent.Confidence).To(BeNumerically(">=", 0.95))
			Expect(intent.RequiresExactMatch).To(BeTrue())
		})

		It("classifies a hex digest as an identifier", func() {
			intent := Classify("d2f1a9c4b8e3d2f1a9c4b8e3d2f1a9c4")
			Expect(intent.Type).To(Equal(IntentTechnicalIdentifier))
		})

		It("classifies an opaque token with digits as an identifier", func() {
			intent := Classify("rec_01J8ZT4Q6RWX9K")
			Expect(intent.Type).To(Equal(IntentTechnicalIdentifier))
		})

		It("does not treat a long word without digits as an identifier", func() {
			intent := Classify("internationalization")
			Expect(intent.Type).To(Equal(IntentSemanticSearch))
		})
	})

	Describe("semantic queries", func() {
		It("classifies free text as semantic search", func() {
			intent := Classify("where does Casey work")
			Expect(intent.Type).To(Equal(IntentSemanticSearch))
		})

		It("gives sentence-like queries higher confidence than single words", func() {
			sentence := Classify("how is the payment service deployed")
			word := Classify("payments")
			Expect(sentence.Confidence).To(BeNumerically(">", word.Confidence))
		})

		It("caps confidence at 1.0", func() {
			intent := Classify("what is the status of the migration to the new cluster")
			Expect(intent.Confidence).To(BeNumerically("<=", 1.0))
		})
	})

	Describe("normalization", func() {
		It("trims and lowercases the query", func() {
			intent := Classify("  Casey Park  ")
			Expect(intent.NormalizedQuery).To(Equal("casey park"))
		})

		It("flags index special characters", func() {
			Expect(Classify("100% coverage").IsSpecialPattern).To(BeTrue())
			Expect(Classify("under_score name").IsSpecialPattern).To(BeTrue())
			Expect(Classify("plain words").IsSpecialPattern).To(BeFalse())
		})
	})
})

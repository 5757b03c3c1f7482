package search

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/record/inmemory"
	testutils "github.com/engramhq/engram/pkg/utils/test"
	"github.com/engramhq/engram/pkg/vector"
)

var _ = Describe("Orchestrator", func() {
	var (
		store    *inmemory.Store
		driver   *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		orch     *Orchestrator
		ctx      context.Context
	)

	createRecord := func(name, recordType string, metadata map[string]any, observations ...string) *record.Record {
		rec := testutils.NewTestRecord(name, recordType, observations...)
		rec.Metadata = metadata
		Expect(store.Create(ctx, rec)).To(Succeed())
		return rec
	}

	BeforeEach(func() {
		store = inmemory.NewStore()
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		orch = NewOrchestrator(store, NewVectorChannel(embedder, driver, nil), nil)
		ctx = context.Background()
	})

	Describe("validation", func() {
		It("rejects a non-positive limit", func() {
			_, err := orch.Search(ctx, "query", Options{Limit: 0})
			Expect(IsKind(err, KindValidation)).To(BeTrue())
		})

		It("rejects an empty query", func() {
			_, err := orch.Search(ctx, "", DefaultOptions())
			Expect(IsKind(err, KindValidation)).To(BeTrue())
		})

		It("accepts any positive limit", func() {
			opts := DefaultOptions()
			opts.Limit = 150
			_, err := orch.Search(ctx, "query", opts)
			Expect(err).NotTo(HaveOccurred())
		})

		It("rejects a threshold outside [0,1]", func() {
			opts := DefaultOptions()
			opts.Threshold = 1.5
			_, err := orch.Search(ctx, "query", opts)
			Expect(IsKind(err, KindValidation)).To(BeTrue())
		})

		It("validates before touching any channel", func() {
			_, _ = orch.Search(ctx, "query", Options{Limit: -1})
			Expect(embedder.Calls).To(BeZero())
			Expect(driver.QueryCalls).To(BeZero())
		})
	})

	Describe("wildcard queries", func() {
		BeforeEach(func() {
			createRecord("Casey Park", "person", nil, "works at Acme")
			createRecord("Acme Corp", "organization", nil)
			createRecord("Billing Service", "project", nil)
		})

		It("lists all records with full scores", func() {
			resp, err := orch.Search(ctx, "*", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Intent).To(Equal(IntentWildcard))
			Expect(resp.Results).To(HaveLen(3))
			for _, res := range resp.Results {
				Expect(res.Score).To(Equal(1.0))
				Expect(res.MatchType).To(Equal(MatchExact))
			}
		})

		It("never touches the vector channel", func() {
			_, err := orch.Search(ctx, "*", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(embedder.Calls).To(BeZero())
		})

		It("routes whitespace-only queries to enumeration", func() {
			resp, err := orch.Search(ctx, "   ", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Intent).To(Equal(IntentWildcard))
			Expect(resp.Results).To(HaveLen(3))
		})

		It("respects the type filter", func() {
			opts := DefaultOptions()
			opts.Types = []string{"person"}

			resp, err := orch.Search(ctx, "*", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Name).To(Equal("Casey Park"))
		})

		It("respects the limit", func() {
			opts := DefaultOptions()
			opts.Limit = 2

			resp, err := orch.Search(ctx, "*", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(2))
		})

		It("attaches graph context when relations exist", func() {
			person := createRecord("Robin Vega", "person", nil)
			org := createRecord("Initech", "organization", nil)
			Expect(store.Relate(ctx, record.Relation{FromID: person.ID, ToID: org.ID, Label: "works_at"})).To(Succeed())

			resp, err := orch.Search(ctx, "*", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())

			var found bool
			for _, res := range resp.Results {
				if res.ID == person.ID {
					found = true
					Expect(res.Related).NotTo(BeNil())
					Expect(res.Related.Descendants).To(HaveLen(1))
					Expect(res.Related.Descendants[0].Name).To(Equal("Initech"))
				}
			}
			Expect(found).To(BeTrue())
		})
	})

	Describe("technical identifier queries", func() {
		It("skips the vector channel entirely", func() {
			createRecord("Deploy Ticket", "ticket", map[string]any{
				"trace_id": "550e8400-e29b-41d4-a716-446655440000",
			})

			resp, err := orch.Search(ctx, "550e8400-e29b-41d4-a716-446655440000", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Intent).To(Equal(IntentTechnicalIdentifier))
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Name).To(Equal("Deploy Ticket"))
			Expect(resp.Results[0].MatchedFields).To(ContainElement(record.FieldMetadata))

			Expect(embedder.Calls).To(BeZero())
			Expect(driver.QueryCalls).To(BeZero())
		})
	})

	Describe("semantic queries", func() {
		It("assigns the exact base score to exact-only hits", func() {
			createRecord("Casey Park", "person", nil, "works at Acme")

			resp, err := orch.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Score).To(BeNumerically("~", 0.90, 0.001))
			Expect(resp.Results[0].MatchType).To(Equal(MatchExact))
		})

		It("boosts hits found by both channels", func() {
			rec := createRecord("Casey Park", "person", nil, "works at Acme")
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: rec.ID}, Score: 0.8},
			}

			resp, err := orch.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Score).To(BeNumerically("~", 0.98, 0.001))
			Expect(resp.Results[0].MatchType).To(Equal(MatchExact))
		})

		It("caps the fused score at 1.0", func() {
			rec := createRecord("Casey Park", "person", nil)
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: rec.ID}, Score: 1.5},
			}

			resp, err := orch.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results[0].Score).To(Equal(1.0))
		})

		It("keeps the similarity score for vector-only hits", func() {
			other := createRecord("Payment Pipeline", "project", nil)
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: other.ID}, Score: 0.75},
			}

			resp, err := orch.Search(ctx, "billing workflows", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Score).To(BeNumerically("~", 0.75, 0.001))
			Expect(resp.Results[0].MatchType).To(Equal(MatchSemantic))
		})

		It("ranks exact before semantic on equal scores", func() {
			createRecord("alpha service", "project", nil)
			other := createRecord("Zeta Pipeline", "project", nil)
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: other.ID}, Score: 0.90},
			}

			resp, err := orch.Search(ctx, "alpha", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(2))
			Expect(resp.Results[0].MatchType).To(Equal(MatchExact))
			Expect(resp.Results[1].MatchType).To(Equal(MatchSemantic))
		})

		It("filters results below the threshold", func() {
			createRecord("casey notes", "note", nil)

			opts := DefaultOptions()
			opts.Threshold = 0.95

			resp, err := orch.Search(ctx, "casey", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(BeEmpty())
		})

		It("truncates to the limit after sorting", func() {
			createRecord("casey one", "note", nil)
			createRecord("casey two", "note", nil)
			createRecord("casey three", "note", nil)

			opts := DefaultOptions()
			opts.Limit = 2

			resp, err := orch.Search(ctx, "casey", opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(2))
		})

		It("serves exact results when the vector backend is unavailable", func() {
			driver.ProbeErr = context.DeadlineExceeded
			createRecord("Casey Park", "person", nil)

			resp, err := orch.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].MatchType).To(Equal(MatchExact))
		})

		It("serves exact results when the vector query fails transiently", func() {
			driver.QueryErr = errors.New("connection reset")
			createRecord("Casey Park", "person", nil)

			resp, err := orch.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].MatchType).To(Equal(MatchExact))
			Expect(resp.Results[0].Score).To(BeNumerically("~", 0.90, 0.001))
		})

		It("synthesizes placeholders for ids missing from the store", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "ghost-id"}, Score: 0.7},
			}

			resp, err := orch.Search(ctx, "deleted memories", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
			Expect(resp.Results[0].Placeholder).To(BeTrue())
			Expect(resp.Results[0].Name).To(Equal("Unknown Memory ghost-id"))
			Expect(resp.Results[0].Score).To(BeNumerically("~", 0.7, 0.001))
		})

		It("works without a vector channel configured", func() {
			exactOnly := NewOrchestrator(store, nil, nil)
			createRecord("Casey Park", "person", nil)

			resp, err := exactOnly.Search(ctx, "casey", DefaultOptions())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Results).To(HaveLen(1))
		})
	})
})

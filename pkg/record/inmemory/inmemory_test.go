package inmemory

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramhq/engram/pkg/record"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		ctx   context.Context
	)

	create := func(name, recordType string, observations ...string) *record.Record {
		obs := make([]record.Observation, 0, len(observations))
		for _, content := range observations {
			obs = append(obs, record.Observation{Content: content})
		}
		rec := &record.Record{Name: name, Type: recordType, Observations: obs}
		Expect(store.Create(ctx, rec)).To(Succeed())
		return rec
	}

	BeforeEach(func() {
		store = NewStore()
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("mints an id and timestamps", func() {
			rec := create("Casey Park", "person")
			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.CreatedAt).NotTo(BeZero())
			Expect(rec.UpdatedAt).NotTo(BeZero())
		})

		It("rejects nil records", func() {
			Expect(store.Create(ctx, nil)).NotTo(Succeed())
		})

		It("rejects duplicate ids", func() {
			rec := create("Casey Park", "person")
			dup := &record.Record{ID: rec.ID, Name: "Other"}
			Expect(store.Create(ctx, dup)).NotTo(Succeed())
		})

		It("stores a copy, not the caller's pointer", func() {
			rec := create("Casey Park", "person")
			rec.Name = "mutated"

			got, err := store.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name).To(Equal("Casey Park"))
		})
	})

	Describe("Get", func() {
		It("returns NotFoundError for unknown ids", func() {
			_, err := store.Get(ctx, "missing")
			Expect(err).To(MatchError(record.NotFoundError{ID: "missing"}))
		})
	})

	Describe("AddObservations", func() {
		It("appends and touches updated_at", func() {
			rec := create("Casey Park", "person", "works at Acme")
			before := rec.UpdatedAt

			time.Sleep(time.Millisecond)
			err := store.AddObservations(ctx, rec.ID, []record.Observation{{Content: "lives in Seoul"}})
			Expect(err).NotTo(HaveOccurred())

			got, err := store.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Observations).To(HaveLen(2))
			Expect(got.UpdatedAt.After(before)).To(BeTrue())
		})

		It("returns NotFoundError for unknown ids", func() {
			err := store.AddObservations(ctx, "missing", []record.Observation{{Content: "x"}})
			Expect(err).To(MatchError(record.NotFoundError{ID: "missing"}))
		})
	})

	Describe("Relate", func() {
		It("requires both endpoints to exist", func() {
			rec := create("Casey Park", "person")
			err := store.Relate(ctx, record.Relation{FromID: rec.ID, ToID: "missing", Label: "works_at"})
			Expect(err).To(MatchError(record.NotFoundError{ID: "missing"}))
		})

		It("deduplicates identical relations", func() {
			person := create("Casey Park", "person")
			org := create("Acme Corp", "organization")
			rel := record.Relation{FromID: person.ID, ToID: org.ID, Label: "works_at"}

			Expect(store.Relate(ctx, rel)).To(Succeed())
			Expect(store.Relate(ctx, rel)).To(Succeed())

			fetched, err := store.FetchByIDs(ctx, []string{person.ID}, record.FetchOptions{IncludeRelated: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched[person.ID].Descendants).To(HaveLen(1))
		})
	})

	Describe("Delete", func() {
		It("removes the record and its edges", func() {
			person := create("Casey Park", "person")
			org := create("Acme Corp", "organization")
			Expect(store.Relate(ctx, record.Relation{FromID: person.ID, ToID: org.ID, Label: "works_at"})).To(Succeed())

			Expect(store.Delete(ctx, org.ID)).To(Succeed())

			_, err := store.Get(ctx, org.ID)
			Expect(err).To(HaveOccurred())

			fetched, err := store.FetchByIDs(ctx, []string{person.ID}, record.FetchOptions{IncludeRelated: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched[person.ID].Descendants).To(BeEmpty())
		})

		It("returns NotFoundError for unknown ids", func() {
			Expect(store.Delete(ctx, "missing")).To(MatchError(record.NotFoundError{ID: "missing"}))
		})
	})

	Describe("MatchExact", func() {
		BeforeEach(func() {
			create("Casey Park", "person", "works at Acme Corp")

			meta := &record.Record{
				Name:     "Deploy Ticket",
				Type:     "ticket",
				Metadata: map[string]any{"owner": "casey"},
			}
			Expect(store.Create(ctx, meta)).To(Succeed())
		})

		It("matches case-insensitively across fields", func() {
			matches, err := store.MatchExact(ctx, "casey", 10, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(2))
		})

		It("reports which fields matched", func() {
			matches, err := store.MatchExact(ctx, "acme", 10, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
			Expect(matches[0].Fields).To(ContainElement(record.FieldContent))
		})

		It("filters by type", func() {
			matches, err := store.MatchExact(ctx, "casey", 10, []string{"ticket"})
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})

		It("caps results at the limit", func() {
			matches, err := store.MatchExact(ctx, "casey", 1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(matches).To(HaveLen(1))
		})
	})

	Describe("List", func() {
		It("orders by name ascending", func() {
			create("zeta", "note")
			create("alpha", "note")
			create("mid", "note")

			enriched, err := store.List(ctx, 10, nil, record.FetchOptions{})
			Expect(err).NotTo(HaveOccurred())
			Expect(enriched).To(HaveLen(3))
			Expect(enriched[0].Name).To(Equal("alpha"))
			Expect(enriched[2].Name).To(Equal("zeta"))
		})
	})

	Describe("graph traversal", func() {
		It("separates ancestors from descendants", func() {
			person := create("Casey Park", "person")
			org := create("Acme Corp", "organization")
			project := create("Billing Service", "project")

			Expect(store.Relate(ctx, record.Relation{FromID: person.ID, ToID: org.ID, Label: "works_at"})).To(Succeed())
			Expect(store.Relate(ctx, record.Relation{FromID: project.ID, ToID: person.ID, Label: "owned_by"})).To(Succeed())

			fetched, err := store.FetchByIDs(ctx, []string{person.ID}, record.FetchOptions{IncludeRelated: true})
			Expect(err).NotTo(HaveOccurred())

			enriched := fetched[person.ID]
			Expect(enriched.Descendants).To(HaveLen(1))
			Expect(enriched.Descendants[0].Name).To(Equal("Acme Corp"))
			Expect(enriched.Ancestors).To(HaveLen(1))
			Expect(enriched.Ancestors[0].Name).To(Equal("Billing Service"))
		})

		It("honors the hop limit", func() {
			a := create("a", "node")
			b := create("b", "node")
			c := create("c", "node")
			d := create("d", "node")

			Expect(store.Relate(ctx, record.Relation{FromID: a.ID, ToID: b.ID, Label: "next"})).To(Succeed())
			Expect(store.Relate(ctx, record.Relation{FromID: b.ID, ToID: c.ID, Label: "next"})).To(Succeed())
			Expect(store.Relate(ctx, record.Relation{FromID: c.ID, ToID: d.ID, Label: "next"})).To(Succeed())

			fetched, err := store.FetchByIDs(ctx, []string{a.ID}, record.FetchOptions{IncludeRelated: true, MaxHops: 2, PerDirection: 10})
			Expect(err).NotTo(HaveOccurred())

			enriched := fetched[a.ID]
			Expect(enriched.Descendants).To(HaveLen(2))
			for _, rel := range enriched.Descendants {
				Expect(rel.HopDistance).To(BeNumerically("<=", 2))
			}
		})
	})
})

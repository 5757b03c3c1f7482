package mcp

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	engramlogger "github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/record/inmemory"
	"github.com/engramhq/engram/pkg/search"
)

var _ = Describe("Memory tools", func() {
	var (
		server *Server
		store  *inmemory.Store
		ctx    context.Context
	)

	BeforeEach(func() {
		logger := engramlogger.Nop()
		store = inmemory.NewStore()
		orchestrator := search.NewOrchestrator(store, nil, logger)

		var err error
		server, err = NewServer(Config{
			Store:        store,
			Orchestrator: orchestrator,
			Logger:       logger,
		})
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
	})

	Describe("handleStore", func() {
		It("creates a record and returns it", func() {
			result, rec, err := server.handleStore(ctx, nil, StoreInput{
				Name:         "Casey Park",
				Type:         "person",
				Observations: []string{"works at Acme", ""},
				Tags:         []string{"engineering"},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.Observations).To(HaveLen(1))

			stored, err := store.Get(ctx, rec.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Name).To(Equal("Casey Park"))
		})

		It("rejects a memory without a name", func() {
			result, rec, err := server.handleStore(ctx, nil, StoreInput{Type: "person"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rec).To(BeNil())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("handleRelate", func() {
		It("links two memories", func() {
			_, from, err := server.handleStore(ctx, nil, StoreInput{Name: "Casey Park", Type: "person"})
			Expect(err).NotTo(HaveOccurred())
			_, to, err := server.handleStore(ctx, nil, StoreInput{Name: "Acme", Type: "organization"})
			Expect(err).NotTo(HaveOccurred())

			result, output, err := server.handleRelate(ctx, nil, RelateInput{
				FromID: from.ID,
				ToID:   to.ID,
				Label:  "works_at",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.Label).To(Equal("works_at"))
		})

		It("reports a missing endpoint as a tool error", func() {
			result, output, err := server.handleRelate(ctx, nil, RelateInput{
				FromID: "ghost-a",
				ToID:   "ghost-b",
				Label:  "knows",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(BeNil())
			Expect(result.IsError).To(BeTrue())
		})

		It("rejects incomplete input", func() {
			result, _, err := server.handleRelate(ctx, nil, RelateInput{FromID: "a"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("handleGet", func() {
		It("fetches a stored memory by id", func() {
			rec := &record.Record{Name: "Casey Park", Type: "person"}
			Expect(store.Create(ctx, rec)).To(Succeed())

			result, fetched, err := server.handleGet(ctx, nil, GetInput{ID: rec.ID})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(fetched.Name).To(Equal("Casey Park"))
		})

		It("reports an unknown id as a tool error", func() {
			result, fetched, err := server.handleGet(ctx, nil, GetInput{ID: "nope"})
			Expect(err).NotTo(HaveOccurred())
			Expect(fetched).To(BeNil())
			Expect(result.IsError).To(BeTrue())
		})
	})

	Describe("handleSearch", func() {
		It("returns matching memories", func() {
			rec := &record.Record{Name: "Casey Park", Type: "person"}
			Expect(store.Create(ctx, rec)).To(Succeed())

			result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "casey"})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.IsError).To(BeFalse())
			Expect(output.TotalFound).To(Equal(1))
			Expect(output.Results[0].Name).To(Equal("Casey Park"))
		})

		It("lists everything for a wildcard query", func() {
			Expect(store.Create(ctx, &record.Record{Name: "Acme", Type: "organization"})).To(Succeed())
			Expect(store.Create(ctx, &record.Record{Name: "Casey Park", Type: "person"})).To(Succeed())

			_, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "*"})
			Expect(err).NotTo(HaveOccurred())
			Expect(output.Intent).To(Equal(search.IntentWildcard))
			Expect(output.Results).To(HaveLen(2))
		})

		It("reports an empty query as a tool error", func() {
			result, output, err := server.handleSearch(ctx, nil, SearchInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(BeNil())
			Expect(result.IsError).To(BeTrue())
		})

		It("reports invalid options as a tool error", func() {
			result, output, err := server.handleSearch(ctx, nil, SearchInput{Query: "casey", Threshold: 1.5})
			Expect(err).NotTo(HaveOccurred())
			Expect(output).To(BeNil())
			Expect(result.IsError).To(BeTrue())
		})
	})
})

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	engramlogger "github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/record"
	"github.com/engramhq/engram/pkg/record/inmemory"
	"github.com/engramhq/engram/pkg/search"
	testutils "github.com/engramhq/engram/pkg/utils/test"
)

var _ = Describe("handleSearchEndpoint", func() {
	var (
		server       *Server
		store        *inmemory.Store
		vectorDriver *testutils.MockVectorDriver
		embedder     *testutils.MockEmbedder
		ctx          context.Context
	)

	newServer := func() *Server {
		logger := engramlogger.Nop()
		channel := search.NewVectorChannel(embedder, vectorDriver, logger)
		orchestrator := search.NewOrchestrator(store, channel, logger)
		return NewServer(Config{ListenAddr: ":0"}, store, orchestrator, nil, nil, logger)
	}

	BeforeEach(func() {
		store = inmemory.NewStore()
		vectorDriver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		ctx = context.Background()
		server = newServer()
	})

	Context("parameter validation", func() {
		It("returns 400 for a non-integer limit", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=test&limit=abc", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("limit must be an integer"))
		})

		It("returns 400 for an out-of-range limit", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=test&limit=0", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var payload ErrorResponse
			Expect(json.Unmarshal(body, &payload)).To(Succeed())
			Expect(payload.Kind).To(Equal("validation_error"))
		})

		It("clamps oversized limits instead of rejecting them", func() {
			rec := &record.Record{Name: "Casey Park", Type: "person"}
			Expect(store.Create(ctx, rec)).To(Succeed())

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=*&limit=500", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
		})

		It("returns 400 for a non-numeric threshold", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=test&threshold=high", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Context("wildcard queries", func() {
		It("rejects an empty query", func() {
			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var payload ErrorResponse
			Expect(json.Unmarshal(body, &payload)).To(Succeed())
			Expect(payload.Kind).To(Equal("validation_error"))
		})

		It("lists everything for a star query", func() {
			rec := &record.Record{Name: "Casey Park", Type: "person"}
			Expect(store.Create(ctx, rec)).To(Succeed())

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=*", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var output search.Response
			Expect(json.Unmarshal(body, &output)).To(Succeed())
			Expect(output.Intent).To(Equal(search.IntentWildcard))
			Expect(output.Results).To(HaveLen(1))
			Expect(output.Results[0].Score).To(Equal(1.0))
		})
	})

	Context("text queries", func() {
		It("returns fused results as JSON", func() {
			rec := &record.Record{Name: "Casey Park", Type: "person"}
			Expect(store.Create(ctx, rec)).To(Succeed())

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=casey", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var output search.Response
			Expect(json.Unmarshal(body, &output)).To(Succeed())
			Expect(output.TotalFound).To(Equal(1))
			Expect(output.Results[0].Name).To(Equal("Casey Park"))
		})

		It("filters by memory_types", func() {
			Expect(store.Create(ctx, &record.Record{Name: "casey notes", Type: "note"})).To(Succeed())
			Expect(store.Create(ctx, &record.Record{Name: "Casey Park", Type: "person"})).To(Succeed())

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=casey&memory_types=person", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var output search.Response
			Expect(json.Unmarshal(body, &output)).To(Succeed())
			Expect(output.Results).To(HaveLen(1))
			Expect(output.Results[0].Type).To(Equal("person"))
		})
	})

	Context("store failures", func() {
		It("maps store errors to 502", func() {
			logger := engramlogger.Nop()
			failing := &failingStore{Store: store}
			orchestrator := search.NewOrchestrator(failing, nil, logger)
			srv := NewServer(Config{ListenAddr: ":0"}, failing, orchestrator, nil, nil, logger)

			req, err := http.NewRequest(http.MethodGet, "/v1/search?query=casey", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := srv.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadGateway))

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())

			var payload ErrorResponse
			Expect(json.Unmarshal(body, &payload)).To(Succeed())
			Expect(payload.Kind).To(Equal("store_error"))
		})
	})
})

// failingStore wraps a Store and fails every exact-match lookup.
type failingStore struct {
	*inmemory.Store
}

func (f *failingStore) MatchExact(_ context.Context, _ string, _ int, _ []string) ([]record.Match, error) {
	return nil, errors.New("connection reset")
}

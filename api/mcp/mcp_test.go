package mcp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramhq/engram/api/mcp"
	engramlogger "github.com/engramhq/engram/pkg/logger"
	"github.com/engramhq/engram/pkg/record/inmemory"
	"github.com/engramhq/engram/pkg/search"
)

var _ = Describe("MCP Server", func() {
	var (
		server       *mcp.Server
		store        *inmemory.Store
		orchestrator *search.Orchestrator
	)

	BeforeEach(func() {
		logger := engramlogger.Nop()
		store = inmemory.NewStore()
		orchestrator = search.NewOrchestrator(store, nil, logger)

		var err error
		server, err = mcp.NewServer(mcp.Config{
			Store:        store,
			Orchestrator: orchestrator,
			Logger:       logger,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewServer", func() {
		It("returns an error when the record store is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Orchestrator: orchestrator,
				Logger:       engramlogger.Nop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("record store is required"))
		})

		It("returns an error when the orchestrator is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Store:  store,
				Logger: engramlogger.Nop(),
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("search orchestrator is required"))
		})

		It("returns an error when logger is nil", func() {
			_, err := mcp.NewServer(mcp.Config{
				Store:        store,
				Orchestrator: orchestrator,
			})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("logger is required"))
		})

		It("creates a server with valid config", func() {
			Expect(server).NotTo(BeNil())
		})

		It("returns an HTTP handler", func() {
			handler := server.Handler()
			Expect(handler).NotTo(BeNil())
		})

		It("skips dependency validation in noop mode", func() {
			noop, err := mcp.NewServer(mcp.Config{Noop: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(noop).NotTo(BeNil())
		})
	})
})

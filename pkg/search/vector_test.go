package search

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	testutils "github.com/engramhq/engram/pkg/utils/test"
	"github.com/engramhq/engram/pkg/vector"
)

var _ = Describe("VectorChannel", func() {
	var (
		driver   *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		channel  *VectorChannel
		ctx      context.Context
	)

	BeforeEach(func() {
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		channel = NewVectorChannel(embedder, driver, nil)
		ctx = context.Background()
	})

	Describe("capability probing", func() {
		It("starts in the unknown state", func() {
			Expect(channel.State()).To(Equal(CapabilityUnknown))
		})

		It("probes once and caches availability", func() {
			_, err := channel.Search(ctx, "first", 5, 0.1, nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = channel.Search(ctx, "second", 5, 0.1, nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.ProbeCalls).To(Equal(1))
			Expect(channel.State()).To(Equal(CapabilityAvailable))
		})

		It("caches a failed probe and never probes again", func() {
			driver.ProbeErr = errors.New("connection refused")

			_, err := channel.Search(ctx, "first", 5, 0.1, nil)
			Expect(IsKind(err, KindCapabilityUnavailable)).To(BeTrue())

			_, err = channel.Search(ctx, "second", 5, 0.1, nil)
			Expect(IsKind(err, KindCapabilityUnavailable)).To(BeTrue())

			Expect(driver.ProbeCalls).To(Equal(1))
			Expect(channel.State()).To(Equal(CapabilityUnavailable))
		})

		It("includes remediation in the capability error", func() {
			driver.ProbeErr = errors.New("connection refused")

			_, err := channel.Search(ctx, "query", 5, 0.1, nil)
			searchErr, ok := AsError(err)
			Expect(ok).To(BeTrue())
			Expect(searchErr.Remediation).NotTo(BeEmpty())
		})
	})

	Describe("embedding failures", func() {
		It("degrades to no candidates without an error", func() {
			embedder.FailAll = true

			candidates, err := channel.Search(ctx, "query", 5, 0.1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(BeEmpty())
		})

		It("skips the probe when embedding fails", func() {
			embedder.FailAll = true

			_, _ = channel.Search(ctx, "query", 5, 0.1, nil)
			Expect(driver.ProbeCalls).To(BeZero())
			Expect(channel.State()).To(Equal(CapabilityUnknown))
		})
	})

	Describe("query results", func() {
		It("converts driver results into vector candidates", func() {
			driver.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "a"}, Score: 0.92},
				{Document: vector.Document{ID: "b"}, Score: 0.48},
			}

			candidates, err := channel.Search(ctx, "query", 5, 0.1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(HaveLen(2))
			Expect(candidates[0].Origin).To(Equal(ChannelVector))
			Expect(candidates[0].Score).To(BeNumerically("~", 0.92, 0.001))
		})

		It("returns nothing when no embedder is configured", func() {
			empty := NewVectorChannel(nil, driver, nil)

			candidates, err := empty.Search(ctx, "query", 5, 0.1, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(candidates).To(BeEmpty())
		})
	})
})

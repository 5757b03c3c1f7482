package ingest

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramhq/engram/pkg/eventstream"
	testutils "github.com/engramhq/engram/pkg/utils/test"
)

// newTestPool creates a pool backed by mocks.
// Callers should "pool.Close()" to drain enqueued jobs before asserting state.
func newTestPool() (*Pool, *testutils.MockVectorDriver, *testutils.MockEmbedder, *testutils.MockPublisher) {
	driver := testutils.NewMockVectorDriver()
	embedder := testutils.NewMockEmbedder()
	publisher := testutils.NewMockPublisher()

	pool, err := NewPool(&Config{
		VectorDriver: driver,
		Embedder:     embedder,
		Publisher:    publisher,
		StoreName:    "inmemory",
	})
	Expect(err).NotTo(HaveOccurred())

	return pool, driver, embedder, publisher
}

var _ = Describe("Pool", func() {
	Describe("NewPool", func() {
		It("rejects a vector driver without an embedder", func() {
			_, err := NewPool(&Config{
				VectorDriver: testutils.NewMockVectorDriver(),
			})
			Expect(err).To(HaveOccurred())
		})

		It("applies worker and queue defaults", func() {
			pool, _, _, _ := newTestPool()
			defer pool.Close()
			Expect(cap(pool.queue)).To(Equal(int(defaultJobQueueSize)))
		})
	})

	Describe("Enqueue", func() {
		It("returns true when the queue has capacity", func() {
			pool, _, _, _ := newTestPool()
			rec := testutils.NewTestRecord("Casey Park", "person", "works at Acme")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()
		})

		It("rejects jobs without a record", func() {
			pool, _, _, _ := newTestPool()
			defer pool.Close()

			Expect(pool.Enqueue(Job{})).To(BeFalse())
		})
	})

	Describe("indexing", func() {
		It("embeds the record and stores the document", func() {
			pool, driver, _, _ := newTestPool()
			rec := testutils.NewTestRecord("Casey Park", "person", "works at Acme")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()

			Expect(driver.Documents).To(HaveLen(1))
			Expect(driver.Documents[0].ID).To(Equal("rec-1"))
			Expect(driver.Documents[0].Type).To(Equal("person"))
		})

		It("publishes an indexed event with embedded=true", func() {
			pool, _, _, publisher := newTestPool()
			rec := testutils.NewTestRecord("Casey Park", "person", "works at Acme")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].EventType).To(Equal(eventstream.EventTypeRecordIndexed))
			Expect(events[0].Record.ID).To(Equal("rec-1"))
			Expect(events[0].Record.Embedded).To(BeTrue())
			Expect(events[0].Record.ObservationCount).To(Equal(1))
		})

		It("still publishes when embedding fails", func() {
			pool, driver, embedder, publisher := newTestPool()
			embedder.FailAll = true

			rec := testutils.NewTestRecord("Casey Park", "person", "works at Acme")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()

			Expect(driver.Documents).To(BeEmpty())

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Record.Embedded).To(BeFalse())
		})

		It("skips the embedding for records with no text", func() {
			pool, driver, _, publisher := newTestPool()
			rec := testutils.NewTestRecord("", "note")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()

			Expect(driver.Documents).To(BeEmpty())
			Expect(publisher.Events()).To(HaveLen(1))
		})

		It("works without a vector stack", func() {
			publisher := testutils.NewMockPublisher()
			pool, err := NewPool(&Config{Publisher: publisher})
			Expect(err).NotTo(HaveOccurred())

			rec := testutils.NewTestRecord("Casey Park", "person")
			rec.ID = "rec-1"

			Expect(pool.Enqueue(Job{Record: rec})).To(BeTrue())
			pool.Close()

			events := publisher.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Record.Embedded).To(BeFalse())
		})
	})
})

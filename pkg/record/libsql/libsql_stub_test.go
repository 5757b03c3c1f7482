//go:build !libsql

package libsql_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramhq/engram/pkg/record/libsql"
)

var _ = Describe("NewStore", func() {
	It("reports that libsql support is not compiled in", func() {
		store, err := libsql.NewStore(context.Background(), "file:engram.db")
		Expect(store).To(BeNil())
		Expect(err).To(MatchError(libsql.ErrNotBuilt))
	})
})

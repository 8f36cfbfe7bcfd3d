package cache

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCache(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cache Suite")
}

var _ = Describe("NewCache", func() {
	It("stores and expires values", func() {
		c := NewCache[int](50 * time.Millisecond)
		Expect(c.Set(context.Background(), "a", 1)).To(Succeed())

		v, err := c.Get(context.Background(), "a")
		Expect(err).ToNot(HaveOccurred())
		Expect(v).To(Equal(1))

		Eventually(func() error {
			_, err := c.Get(context.Background(), "a")
			return err
		}).WithTimeout(time.Second).Should(HaveOccurred())
	})

	It("keeps values without expiration", func() {
		c := NewCache[string](0)
		Expect(c.Set(context.Background(), "k", "v")).To(Succeed())
		Expect(c.Get(context.Background(), "k")).To(Equal("v"))
	})
})

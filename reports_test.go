package reports

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/flanksource/commons/properties"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/store"
)

func TestReports(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Reports Suite")
}

var _ = Describe("Properties", func() {
	It("parses properties files", func() {
		path := filepath.Join(GinkgoT().TempDir(), "reports.properties")
		Expect(os.WriteFile(path, []byte("# comment\nreports.cache.ttl = 1m\n\nreports.metrics=false\n"), 0600)).To(Succeed())

		props, err := LoadPropertiesFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(props).To(Equal(map[string]string{"reports.cache.ttl": "1m", "reports.metrics": "false"}))
		Expect(properties.String("", "reports.cache.ttl")).To(Equal("1m"))
	})

	It("rejects lines without a value", func() {
		path := filepath.Join(GinkgoT().TempDir(), "broken.properties")
		Expect(os.WriteFile(path, []byte("broken\n"), 0600)).To(Succeed())
		_, err := ParsePropertiesFile(path)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Start", func() {
	It("binds flags to the default config", func() {
		saved := api.DefaultConfig
		DeferCleanup(func() { api.DefaultConfig = saved })

		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		BindPFlags(flags)
		Expect(flags.Parse([]string{"--port", "9090", "--filter-debounce", "1s"})).To(Succeed())
		Expect(api.DefaultConfig.Port).To(Equal(9090))
		Expect(api.DefaultConfig.Debounce).To(Equal(time.Second))
	})

	It("opens an in memory database with the built in catalog", func() {
		ctx, p, stop, err := Start("test", InMemory, WithoutCache)
		Expect(err).ToNot(HaveOccurred())
		DeferCleanup(stop)

		r := &store.Report{Type: "organisations", Fields: models.Fields{{Type: "organisation", Field: "name", Visible: true}}}
		Expect(store.Create(ctx, r)).To(Succeed())
		Expect(store.SaveContent(ctx, r.ID, []byte(`[{"name":"A"}]`))).To(Succeed())

		state, err := store.State(ctx, r.ID)
		Expect(err).ToNot(HaveOccurred())
		result := p.Run(ctx, pipeline.Input{Report: state.Report, Content: state.Content, Fields: state.Fields})
		Expect(result.Rows).To(HaveLen(1))
	})

	It("fails on missing catalog files", func() {
		_, _, _, err := Start("test", InMemory, WithCatalog("/does/not/exist.yaml"))
		Expect(api.ErrorCode(err)).To(Equal(api.ENOTFOUND))
	})
})

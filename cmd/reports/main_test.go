package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCLI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "CLI Suite")
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

var _ = Describe("CLI", func() {
	var content, fields string

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		content = filepath.Join(dir, "content.json")
		fields = filepath.Join(dir, "fields.yaml")
		Expect(os.WriteFile(content, []byte(`[{"name":"A","state":"NRW"},{"name":"B","state":"BY"}]`), 0600)).To(Succeed())
		Expect(os.WriteFile(fields, []byte(`
- {type: organisation, field: name, order: 0, visible: true}
- {type: organisation, field: state, order: 1, visible: true, sort: desc}
`), 0600)).To(Succeed())
	})

	It("renders a table", func() {
		out, err := run("render", "--type", "organisations", "--content", content, "--fields", fields, "--filters", "", "-o", "table")
		Expect(err).ToNot(HaveOccurred())
		lines := strings.Split(strings.TrimSpace(out), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[1]).To(HavePrefix("A"))
	})

	It("exports csv", func() {
		out, err := run("export", "--type", "organisations", "--content", content, "--fields", fields, "--filters", "")
		Expect(err).ToNot(HaveOccurred())
		Expect(strings.Split(strings.TrimSpace(out), "\n")).To(HaveLen(3))
	})

	It("requires a report type", func() {
		_, err := run("render", "--type", "", "--content", content, "--fields", fields)
		Expect(err).To(HaveOccurred())
	})

	It("prints schemas of documents and report types", func() {
		out, err := run("schema", "config")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("fieldsByEntity"))

		out, err = run("schema", "organisations_statistics")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("statistics"))

		_, err = run("schema", "nope")
		Expect(err).To(HaveOccurred())
	})

	It("lists the catalog", func() {
		out, err := run("catalog", "-o", "table")
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(ContainSubstring("organisation_name"))
	})
})

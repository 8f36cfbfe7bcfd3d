package openapi

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/flanksource/reports/models"
)

func TestOpenAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "OpenAPI Suite")
}

var _ = Describe("Validator", func() {
	validator := MustValidator(&models.ReportConfig{})

	DescribeTable("ReportConfig",
		func(doc string, invalid bool) {
			err := validator.ValidateBytes([]byte(doc))
			if invalid {
				Expect(err).To(HaveOccurred())
			} else {
				Expect(err).ToNot(HaveOccurred())
			}
		},
		Entry("valid config", `{"fieldsByEntity":{"organisation":[{"value":"name","label":"Name","dataType":"string"}]}}`, false),
		Entry("missing fieldsByEntity", `{"reportTypeEntities":{}}`, true),
		Entry("unknown data type", `{"fieldsByEntity":{"organisation":[{"value":"name","label":"Name","dataType":"text"}]}}`, true),
		Entry("missing label", `{"fieldsByEntity":{"organisation":[{"value":"name","dataType":"string"}]}}`, true),
	)

	It("validates decoded documents", func() {
		doc := map[string]any{"fieldsByEntity": map[string]any{}}
		Expect(validator.Validate(doc)).To(Succeed())
	})
})

var _ = Describe("GenerateSchema", func() {
	It("reflects an inline schema with tagged required fields", func() {
		schema, err := GenerateSchema(&models.ReportConfig{})
		Expect(err).ToNot(HaveOccurred())

		var schemaJSON map[string]any
		Expect(json.Unmarshal(schema, &schemaJSON)).To(Succeed())
		Expect(schemaJSON).ToNot(HaveKey("$schema"))

		properties, ok := schemaJSON["properties"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(properties).To(HaveKey("fieldsByEntity"))
		Expect(schemaJSON["required"]).To(ConsistOf("fieldsByEntity"))
	})
})

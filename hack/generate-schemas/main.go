package main

import (
	"os"
	"path"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/schema/openapi"
)

var schemas = map[string]any{
	"report_config": &models.ReportConfig{},
	"report":        &models.Report{},
	"filter_groups": &models.FilterGroups{},
}

var outDir string

var generateSchema = &cobra.Command{
	Use: "generate-schema",
	Run: func(cmd *cobra.Command, args []string) {
		for file, obj := range schemas {
			p := path.Join(outDir, file+".schema.json")
			if err := openapi.WriteSchemaToFile(p, obj); err != nil {
				logger.Fatalf("unable to save schema: %v", err)
			}
			logger.Infof("Saved OpenAPI schema to %s", p)
		}
	},
}

func main() {
	generateSchema.Flags().StringVar(&outDir, "out", "../../schema/openapi", "directory the schema files are written to")
	if err := generateSchema.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"sort"

	"github.com/flanksource/commons/logger"
	"github.com/rodaine/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/flanksource/reports"
	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/schema/openapi"
	"github.com/flanksource/reports/transform"
	"github.com/flanksource/reports/types"
)

var Schemas = map[string]any{
	"config":  &models.ReportConfig{},
	"report":  &models.Report{},
	"fields":  &models.Fields{},
	"filters": &models.FilterGroups{},
	"sorting": &models.SortingList{},
}

var schema = &cobra.Command{
	Use:   "schema [config|report|fields|filters|sorting|<report type>]",
	Short: "Print the JSON schema of a document type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if obj, ok := Schemas[args[0]]; ok {
			data, err = openapi.GenerateSchema(obj)
		} else {
			var found bool
			if data, found, err = transform.Schema(args[0]); !found {
				keys := lo.Keys(Schemas)
				sort.Strings(keys)
				return api.Errorf(api.EINVALID, "unknown schema %q, expected a report type or one of %v", args[0], keys)
			}
		}
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

var catalogOutput string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the fields of the effective catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := reports.LoadCatalog(api.DefaultConfig.ReadEnv())
		if err != nil {
			return err
		}

		if catalogOutput == "yaml" {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cat.Config()); err != nil {
				return err
			}
			return enc.Close()
		}

		tbl := table.New("Entity", "Key", "Label", "Type").WithWriter(cmd.OutOrStdout())
		for _, entity := range cat.Entities() {
			for _, f := range entity.Fields {
				tbl.AddRow(entity.Label, types.ColumnKey(entity.Type, f.Value), f.Label, f.DataType)
			}
		}
		tbl.Print()
		return nil
	},
}

var migrate = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the report tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, stop, err := reports.Start("migrate", reports.WithoutCache)
		if err != nil {
			return err
		}
		stop()
		logger.Infof("Migrated %s", api.DefaultConfig.ReadEnv().DSN)
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogOutput, "output", "o", "table", "table or yaml")
}

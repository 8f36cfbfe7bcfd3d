package main

import (
	"fmt"
	"io"
	"os"

	"github.com/flanksource/commons/logger"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/flanksource/reports"
	"github.com/flanksource/reports/api"
	"github.com/flanksource/reports/context"
	"github.com/flanksource/reports/export"
	"github.com/flanksource/reports/models"
	"github.com/flanksource/reports/pipeline"
	"github.com/flanksource/reports/shutdown"
	"github.com/flanksource/reports/store"
	"github.com/flanksource/reports/transform"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var renderFlags struct {
	report  string
	kind    string
	title   string
	content string
	fields  string
	filters string
	output  string
}

func bindRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&renderFlags.report, "report", "", "id of a stored report, replaces --type, --content and --fields")
	cmd.Flags().StringVar(&renderFlags.kind, "type", "", "report type")
	cmd.Flags().StringVar(&renderFlags.title, "title", "", "report title, used for the export file name")
	cmd.Flags().StringVar(&renderFlags.content, "content", "-", "JSON content file, - for stdin")
	cmd.Flags().StringVar(&renderFlags.fields, "fields", "", "YAML or JSON file with the display fields")
	cmd.Flags().StringVar(&renderFlags.filters, "filters", "", "YAML or JSON file with the filter groups")
}

var render = &cobra.Command{
	Use:   "render",
	Short: "Render report content as a grouped table",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, p, in, err := loadInput()
		if err != nil {
			return err
		}
		result := p.Run(ctx, in)

		switch renderFlags.output {
		case "json":
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		case "yaml":
			data, err := yaml.Marshal(result)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		case "", "table":
			export.RenderTable(cmd.OutOrStdout(), result.Table, result.Fields, p.Catalog())
			return nil
		}
		return api.Errorf(api.EINVALID, "unsupported output %q", renderFlags.output)
	},
}

var exportFile string

var exportCSV = &cobra.Command{
	Use:   "export",
	Short: "Export the filtered and sorted rows as CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, p, in, err := loadInput()
		if err != nil {
			return err
		}
		result := p.Run(ctx, in)
		csv := export.ToCSV(result.Filtered, result.Fields, p.Catalog())

		if exportFile == "" {
			_, err = io.WriteString(cmd.OutOrStdout(), csv)
			return err
		}
		if exportFile == "." {
			exportFile = export.FileName(in.Report)
		}
		if err := os.WriteFile(exportFile, []byte(csv), 0644); err != nil {
			return err
		}
		logger.Infof("Exported %d rows to %s", len(result.Filtered), exportFile)
		return nil
	},
}

func loadInput() (context.Context, *pipeline.Pipeline, pipeline.Input, error) {
	opts := []reports.StartOption{reports.WithoutCache}
	if renderFlags.report == "" {
		opts = append(opts, reports.InMemory)
	}
	ctx, p, stop, err := reports.Start("reports", opts...)
	if err != nil {
		return ctx, nil, pipeline.Input{}, err
	}
	shutdown.AddHookWithPriority("database", shutdown.PriorityCritical, stop)

	if renderFlags.report != "" {
		state, err := store.State(ctx, renderFlags.report)
		if err != nil {
			return ctx, nil, pipeline.Input{}, err
		}
		return ctx, p, pipeline.Input{
			Report:  state.Report,
			Content: state.Content,
			Fields:  state.Fields,
			Filters: state.Filters,
			Sorting: state.Sorting,
		}, nil
	}

	if renderFlags.kind == "" {
		return ctx, nil, pipeline.Input{}, api.Errorf(api.EINVALID, "--type or --report is required")
	}
	in := pipeline.Input{Report: models.Report{Type: renderFlags.kind, Title: renderFlags.title}}

	raw, err := readFile(renderFlags.content)
	if err != nil {
		return ctx, nil, in, err
	}
	if in.Content, err = transform.Decode(raw); err != nil {
		return ctx, nil, in, err
	}
	if err := readYAML(renderFlags.fields, &in.Fields); err != nil {
		return ctx, nil, in, err
	}
	if err := readYAML(renderFlags.filters, &in.Filters); err != nil {
		return ctx, nil, in, err
	}
	in.Report.Fields = in.Fields
	return ctx, p, in, nil
}

func readFile(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, api.Wrap(api.ENOTFOUND, err, fmt.Sprintf("failed to read %s", path))
	}
	return data, nil
}

func readYAML(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := readFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return api.Wrap(api.EINVALID, err, fmt.Sprintf("failed to decode %s", path))
	}
	return nil
}

func init() {
	bindRenderFlags(render)
	render.Flags().StringVarP(&renderFlags.output, "output", "o", "table", "table, json or yaml")

	bindRenderFlags(exportCSV)
	exportCSV.Flags().StringVarP(&exportFile, "file", "f", "", "write to a file instead of stdout, . for the report title")
}

package main

import (
	"os"

	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"

	"github.com/flanksource/reports"
	"github.com/flanksource/reports/shutdown"
	"github.com/flanksource/reports/telemetry"
)

var propertiesFile string

var root = &cobra.Command{
	Use:          "reports",
	Short:        "Render, export and serve tabular reports",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if propertiesFile == "" {
			return nil
		}
		props, err := reports.LoadPropertiesFile(propertiesFile)
		if err != nil {
			return err
		}
		logger.V(2).Infof("loaded %d properties from %s", len(props), propertiesFile)
		return nil
	},
}

func init() {
	reports.BindPFlags(root.PersistentFlags())
	telemetry.BindFlags(root.PersistentFlags(), "reports")
	root.PersistentFlags().StringVar(&propertiesFile, "properties", "", "key=value file of runtime properties")

	root.AddCommand(render, exportCSV, serve, schema, catalogCmd, migrate)
}

func main() {
	if err := root.Execute(); err != nil {
		shutdown.ShutdownAndExit(1, err.Error())
	}
	shutdown.Shutdown()
	os.Exit(0)
}

// Command vizserver serves the series, choropleth and drill-down API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vizpipe/internal/app"
	"vizpipe/internal/infrastructure"
	"vizpipe/pkg/contracts"
)

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "vizserver",
		Short: "Serve the series, choropleth and drill-down API",
		Long: "vizserver loads the configured datasets and serves them over HTTP and\n" +
			"WebSocket until interrupted. SIGHUP reloads the datasets.",
		Version:       contracts.Current().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.NewApplication(configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer infrastructure.CloseLogFile()

			return application.Run()
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default: ./config.yaml when present)")
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

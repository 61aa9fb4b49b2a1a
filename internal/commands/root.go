// Package commands implements the dataaccess command line client.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/gaborage/dataaccess/http"
)

// GlobalOptions holds flags shared by every command
type GlobalOptions struct {
	ConfigFile string
	BaseURL    string
	LogLevel   string
	Pretty     bool

	// transport replaces the configured HTTP transport in tests
	transport http.Transport
}

// NewRootCommand creates the dataaccess command tree
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &GlobalOptions{})
}

func newRootCommand(version string, opts *GlobalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dataaccess",
		Short: "Send requests through the resilient executor",
		Long: `dataaccess sends JSON, multipart and download requests to a backend with
bearer credential rotation, cookie persistence and automatic retries on
connectivity failures.

Configuration is read from dataaccess.yaml (or --config) and DATAACCESS_*
environment variables.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (default dataaccess.yaml when present)")
	flags.StringVar(&opts.BaseURL, "base-url", "", "Base URL prepended to endpoints")
	flags.StringVar(&opts.LogLevel, "log-level", "", "Log level (trace|debug|info|warn|error|disabled)")
	flags.BoolVar(&opts.Pretty, "pretty", false, "Human readable logs")

	rootCmd.AddCommand(
		newRequestCommand(opts),
		newUploadCommand(opts),
		newDownloadCommand(opts),
		newTokenCommand(opts),
		newVersionCommand(version),
	)

	return rootCmd
}

package commands

import (
	"fmt"
	"net/url"
	"os"
	"path"

	"github.com/spf13/cobra"
)

// DownloadOptions holds options for the download command
type DownloadOptions struct {
	Output string
	Quiet  bool
}

func newDownloadCommand(global *GlobalOptions) *cobra.Command {
	opts := &DownloadOptions{}

	cmd := &cobra.Command{
		Use:   "download URL",
		Short: "Download a resource to a file",
		Long: `Downloads URL and writes the body to --output.

A transfer that fails after bytes were received is not retried.`,
		Example: `  dataaccess download https://cdn.example.com/files/report.pdf -o report.pdf`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Output file (default: last path segment of URL)")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Do not print progress")

	return cmd
}

func runDownload(cmd *cobra.Command, global *GlobalOptions, opts *DownloadOptions, rawURL string) error {
	output := opts.Output
	if output == "" {
		output = outputName(rawURL)
	}

	req := target(rawURL)
	req.ShowProgress = true

	sess, err := newSession(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.closeQuietly()

	label := "download"
	if opts.Quiet {
		label = ""
	}
	out, err := await(cmd, sess.executor.Download(cmd.Context(), req), label)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return describe(out.Err)
	}

	data, _ := out.Value.([]byte)
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (%d bytes)\n", output, len(data))
	return nil
}

func outputName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}

package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gaborage/dataaccess/request"
)

// UploadOptions holds options for the upload command
type UploadOptions struct {
	Param   string
	Name    string
	Query   map[string]string
	Headers map[string]string
	Quiet   bool
}

func newUploadCommand(global *GlobalOptions) *cobra.Command {
	opts := &UploadOptions{}

	cmd := &cobra.Command{
		Use:     "upload ENDPOINT FILE",
		Short:   "Upload a file as multipart/form-data",
		Example: `  dataaccess upload /documents ./scan.pdf --param document`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, global, opts, args[0], args[1])
		},
	}

	cmd.Flags().StringVar(&opts.Param, "param", "file", "Form parameter name of the file part")
	cmd.Flags().StringVar(&opts.Name, "name", "", "File name sent to the server (default: base name of FILE)")
	cmd.Flags().StringToStringVarP(&opts.Query, "query", "q", nil, "Query item key=value")
	cmd.Flags().StringToStringVarP(&opts.Headers, "header", "H", nil, "Extra header key=value")
	cmd.Flags().BoolVar(&opts.Quiet, "quiet", false, "Do not print progress")

	return cmd
}

func runUpload(cmd *cobra.Command, global *GlobalOptions, opts *UploadOptions, endpoint, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	name := opts.Name
	if name == "" {
		name = filepath.Base(path)
	}

	req := request.Upload(endpoint, request.MultipartFile{FileName: name, ParamName: opts.Param, Data: data})
	req.Query = opts.Query
	req.Headers = opts.Headers
	req.ShowProgress = true

	sess, err := newSession(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.closeQuietly()

	label := "upload"
	if opts.Quiet {
		label = ""
	}
	out, err := await(cmd, sess.executor.Upload(cmd.Context(), req, nil), label)
	if err != nil {
		return err
	}
	if out.Err != nil {
		return describe(out.Err)
	}

	raw, _ := out.Value.([]byte)
	return writeBody(cmd.OutOrStdout(), raw)
}

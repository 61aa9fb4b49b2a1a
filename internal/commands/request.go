package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gaborage/dataaccess/executor"
	"github.com/gaborage/dataaccess/request"
)

// RequestOptions holds options for the request command
type RequestOptions struct {
	Method   string
	Data     string
	Query    map[string]string
	Headers  map[string]string
	Path     []string
	Progress bool
}

func newRequestCommand(global *GlobalOptions) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request ENDPOINT",
		Short: "Send a JSON request",
		Long: `Sends a JSON request and prints the response body.

ENDPOINT is joined to the configured base URL unless it is an absolute URL.
Connectivity failures are retried according to the retry configuration.`,
		Example: `  # GET with query items
  dataaccess request /users -q page=2

  # POST a JSON body from a file
  dataaccess request /users -X POST -d @user.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, global, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", string(request.MethodGet), "HTTP method (GET|POST|PUT|PATCH|DELETE)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "JSON body, or @file to read it from a file")
	cmd.Flags().StringToStringVarP(&opts.Query, "query", "q", nil, "Query item key=value")
	cmd.Flags().StringToStringVarP(&opts.Headers, "header", "H", nil, "Extra header key=value")
	cmd.Flags().StringSliceVar(&opts.Path, "path", nil, "Path segments appended after escaping")
	cmd.Flags().BoolVar(&opts.Progress, "progress", false, "Report activity while the request is in flight")

	return cmd
}

func runRequest(cmd *cobra.Command, global *GlobalOptions, opts *RequestOptions, endpoint string) error {
	body, err := readData(opts.Data)
	if err != nil {
		return err
	}

	req := target(endpoint)
	req.Method = request.Method(strings.ToUpper(opts.Method))
	req.Query = opts.Query
	req.Headers = opts.Headers
	req.PathSegments = opts.Path
	req.ShowProgress = opts.Progress
	if body != nil {
		req.Body = body
	}

	sess, err := newSession(global, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer sess.closeQuietly()

	out, err := await(cmd, sess.executor.Submit(cmd.Context(), req, nil), "")
	if err != nil {
		return err
	}
	if out.Err != nil {
		return describe(out.Err)
	}

	raw, _ := out.Value.([]byte)
	return writeBody(cmd.OutOrStdout(), raw)
}

// target maps absolute URLs to RawURL and everything else to Endpoint
func target(endpoint string) request.LogicalRequest {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return request.Download(endpoint)
	}
	return request.Get(endpoint)
}

func readData(data string) (json.RawMessage, error) {
	if data == "" {
		return nil, nil
	}
	raw := []byte(data)
	if name, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, errors.New("body is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// await waits for the outcome, printing progress to stderr when label is set
func await(cmd *cobra.Command, x *executor.Execution, label string) (executor.Outcome, error) {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()
	last := -1
	for {
		select {
		case ev, ok := <-x.Events():
			if !ok {
				return x.Wait(ctx)
			}
			switch ev.Kind {
			case executor.EventProgress:
				pct := int(ev.Progress.Fraction * 100)
				if label != "" && pct != last {
					last = pct
					fmt.Fprintf(stderr, "%s %3d%%\n", label, pct)
				}
			case executor.EventOutcome:
				return ev.Outcome, nil
			}
		case <-ctx.Done():
			x.Cancel()
			return executor.Outcome{}, ctx.Err()
		}
	}
}

// describe prefixes transport failures with their message key
func describe(err error) error {
	if executor.IsErrorType(err, executor.TransportError) {
		return fmt.Errorf("%s: %w", executor.Message(err), err)
	}
	return err
}

func writeBody(w io.Writer, body []byte) error {
	var buf bytes.Buffer
	if json.Valid(body) && json.Indent(&buf, body, "", "  ") == nil {
		body = buf.Bytes()
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

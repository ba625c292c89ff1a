package cli

import (
	"crypto/x509"
	"fmt"
	"io"
	"os"

	"stream-fetch/application/fetch"
	"stream-fetch/application/fetch/journal"
	"stream-fetch/application/http"
	"stream-fetch/application/http/stream"
	"stream-fetch/application/util/rule"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var ErrInvalidHeader = errors.New("header should look like \"Name: value\"")

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Download URL to a file",
		Long: `Get sends a GET request for URL and streams the response body to a file.

The file name comes from Content-Disposition, the URL path or the content
type, in that order, unless --output is given. A complete file of the
announced length is left alone. A shorter one is downloaded again.`,
		Args: cobra.ExactArgs(1),
		RunE: runGet,
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "write the body to this path, - for stdout")
	flags.String("dir", "", "directory for inferred file names")
	flags.Bool("print", false, "write the body to stdout")
	flags.StringArrayP("header", "H", nil, "extra request header, repeatable (\"Name: value\")")
	flags.String("user-agent", fetch.DefaultOptions.UserAgent, "User-Agent header, empty to omit")
	flags.Bool("insecure", false, "skip TLS certificate verification")
	flags.String("ca-file", "", "PEM file with extra trusted certificates")
	flags.Duration("timeout", fetch.DefaultOptions.ConnectTimeout, "connect timeout, 0 for none")
	flags.Duration("stall-timeout", stream.DefaultOptions.StallTimeout, "longest wait for body bytes")
	flags.String("journal", "", "record the transfer in this SQLite file")
	flags.Bool("progress", false, "print download progress")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	opts, err := getOptions(cmd)
	if err != nil {
		return err
	}

	var recorder fetch.Recorder
	if path, _ := cmd.Flags().GetString("journal"); path != "" {
		store, err := journal.NewSQLiteStore(path)
		if err != nil {
			return errors.Wrap(err, "opening journal")
		}
		defer store.Close()
		recorder = store
	}

	client := fetch.New(newLogger(cmd), clock.New(), recorder, opts)

	result, err := client.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	printResult(cmd.ErrOrStderr(), result)
	return nil
}

// getOptions maps the flags of cmd onto client options.
func getOptions(cmd *cobra.Command) (fetch.Options, error) {
	flags := cmd.Flags()
	opts := fetch.DefaultOptions
	opts.Stdout = cmd.OutOrStdout()

	opts.Output, _ = flags.GetString("output")
	opts.Dir, _ = flags.GetString("dir")
	if toStdout, _ := flags.GetBool("print"); toStdout {
		opts.Output = fetch.Stdout
	}

	opts.UserAgent, _ = flags.GetString("user-agent")
	opts.ConnectTimeout, _ = flags.GetDuration("timeout")
	opts.Stream.StallTimeout, _ = flags.GetDuration("stall-timeout")
	opts.Transport.InsecureSkipVerify, _ = flags.GetBool("insecure")

	rawHeaders, _ := flags.GetStringArray("header")
	headers, err := parseHeaders(rawHeaders)
	if err != nil {
		return opts, err
	}
	opts.Headers = headers

	if path, _ := flags.GetString("ca-file"); path != "" {
		pool, err := loadCertPool(path)
		if err != nil {
			return opts, err
		}
		opts.Transport.RootCAs = pool
	}

	if progress, _ := flags.GetBool("progress"); progress {
		w := cmd.ErrOrStderr()
		opts.Stream.OnProgress = func(received, total int64) {
			fmt.Fprintf(w, "\r%6.2f%% %d/%d", stream.Percent(received, total), received, total)
			if received >= total {
				fmt.Fprintln(w)
			}
		}
	}

	return opts, nil
}

func parseHeaders(raw []string) (http.Headers, error) {
	var headers http.Headers
	for _, line := range raw {
		f, ok := http.ParseField(line)
		if !ok || !rule.IsValidToken(f.Name) {
			return nil, errors.Wrapf(ErrInvalidHeader, "%q", line)
		}
		headers.Set(f.Name, f.Value)
	}
	return headers, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading ca file")
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(b) {
		return nil, errors.Errorf("no certificate found in %s", path)
	}
	return pool, nil
}

func printResult(w io.Writer, result *fetch.Result) {
	resp := result.Response
	switch {
	case result.Skipped:
		fmt.Fprintf(w, "%s already complete (%d bytes)\n", result.Output, result.Received)
	case result.Output == "":
		fmt.Fprintf(w, "%d %s, no body\n", resp.StatusCode, resp.StatusMessage)
	case result.Output == fetch.Stdout:
		// The body is on stdout.
	case result.Expected >= 0 && result.Received != result.Expected:
		fmt.Fprintf(w, "%s incomplete: %d of %d bytes\n", result.Output, result.Received, result.Expected)
	default:
		fmt.Fprintf(w, "%d %s, saved %s (%d bytes)\n", resp.StatusCode, resp.StatusMessage, result.Output, result.Received)
	}
}

package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jk2pr/GoGit-KMP/pkg/codec"
	"github.com/jk2pr/GoGit-KMP/pkg/pagination"
	"github.com/jk2pr/GoGit-KMP/pkg/transport/rest"
)

func newRequestCmd(flags *globalFlags) *cobra.Command {
	var (
		data    string
		headers []string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request; PATH is resolved against the base URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rest.NewRequest(strings.ToUpper(args[0]), args[1])
			req.Timeout = timeout

			for _, h := range headers {
				key, value, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("header %q is not in KEY:VALUE form", h)
				}
				req.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value))
			}

			if data != "" {
				body, err := readData(data, cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Body = body
			}

			return send(cmd, flags, req)
		},
	}
	cmd.Flags().StringVarP(&data, "data", "d", "", "request body; @FILE reads a file, @- reads stdin")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "extra header as KEY:VALUE (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request timeout, 0 uses the configured timeouts")
	return cmd
}

func newGetCmd(flags *globalFlags) *cobra.Command {
	var (
		all       bool
		maxPages  int
		pagerKind string
		pagerOpts []string
	)
	cmd := &cobra.Command{
		Use:   "get PATH",
		Short: "Send a GET request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rest.NewRequest(http.MethodGet, args[0])
			if !all {
				return send(cmd, flags, req)
			}

			opts := make(map[string]any, len(pagerOpts))
			for _, kv := range pagerOpts {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("pager option %q is not in KEY=VALUE form", kv)
				}
				opts[key] = parseValue(value)
			}
			pager, err := pagination.DefaultFactory.CreatePager(pagerKind, req, opts)
			if err != nil {
				return err
			}

			client, err := newClient(cmd, flags)
			if err != nil {
				return err
			}
			pretty := client.Config().PrettyPrint
			return pagination.Walk(cmd.Context(), client, pager, maxPages, func(resp *rest.Response) error {
				return writeBody(cmd.OutOrStdout(), resp.Body, pretty)
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "fetch and print every page")
	cmd.Flags().IntVar(&maxPages, "max-pages", 100, "page limit for --all, 0 for none")
	cmd.Flags().StringVar(&pagerKind, "pager", "link",
		fmt.Sprintf("pagination style for --all (%s)", strings.Join(pagination.DefaultFactory.GetAvailablePagers(), ", ")))
	cmd.Flags().StringArrayVar(&pagerOpts, "pager-opt", nil,
		"pager option as KEY=VALUE, e.g. cursorParam=after or pageSize=50 (repeatable)")
	return cmd
}

func send(cmd *cobra.Command, flags *globalFlags, req *rest.Request) error {
	client, err := newClient(cmd, flags)
	if err != nil {
		return err
	}

	resp, err := client.Send(cmd.Context(), req)
	if err != nil {
		return err
	}

	if err := writeBody(cmd.OutOrStdout(), resp.Body, client.Config().PrettyPrint); err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: HTTP %d", req.Method, req.URL, resp.StatusCode)
	}
	return nil
}

// writeBody prints body, re-indented when pretty is set and body is JSON
func writeBody(w io.Writer, body []byte, pretty bool) error {
	if pretty && len(body) > 0 {
		var v any
		if err := codec.Decode(body, &v); err == nil {
			if body, err = (codec.JSON{Indent: true}).Encode(v); err != nil {
				return err
			}
		}
	}
	if len(body) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, string(body))
	return err
}

func readData(data string, stdin io.Reader) ([]byte, error) {
	switch {
	case data == "@-":
		return io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		return os.ReadFile(strings.TrimPrefix(data, "@"))
	default:
		return []byte(data), nil
	}
}

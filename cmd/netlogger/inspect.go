package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/doanphungtu/tudp-rn-debugger/interfaces/go/client"
	"github.com/doanphungtu/tudp-rn-debugger/internal/app"
	obs "github.com/doanphungtu/tudp-rn-debugger/internal/infrastructure/observability"
)

func newFetchCmd() *cobra.Command {
	var (
		method  string
		data    string
		headers []string
	)
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Send one request through a local capture and print the record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.Force = true
			a := app.New(cfg, obs.NewLoggerTo(cfg.LogLevel, os.Stderr), nil)
			defer a.Close()
			if err := a.StartFromConfig(); err != nil {
				return err
			}

			var body io.Reader
			if data != "" {
				body = strings.NewReader(data)
			}
			req, err := http.NewRequestWithContext(cmd.Context(), method, args[0], body)
			if err != nil {
				return err
			}
			for _, h := range headers {
				k, v, ok := strings.Cut(h, ":")
				if !ok {
					return fmt.Errorf("bad header %q, want Name: value", h)
				}
				req.Header.Add(strings.TrimSpace(k), strings.TrimSpace(v))
			}
			resp, reqErr := a.Client.Do(req)
			if reqErr == nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}

			recs := a.Net.Requests()
			if len(recs) == 0 {
				if reqErr != nil {
					return reqErr
				}
				return errors.New("request was not captured (filtered?)")
			}
			newPrinter(cmd.OutOrStdout()).detail(recs[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "request", "X", http.MethodGet, "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "Request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Request header, repeatable")
	return cmd
}

func newListCmd() *cobra.Command {
	var opts client.ListOptions
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List captured requests from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			items, total, err := client.New(apiURL).ListRequests(ctx, opts)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			for _, it := range items {
				if verbose {
					p.detail(recordOf(it))
					fmt.Fprintln(p.w)
					continue
				}
				p.line(recordOf(it))
			}
			fmt.Fprintln(p.w, p.paint(dimStyle, fmt.Sprintf("%d of %d requests", len(items), total)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.Q, "query", "q", "", "Case-insensitive URL substring")
	cmd.Flags().StringVar(&opts.Method, "method", "", "Only this method")
	cmd.Flags().StringVar(&opts.State, "state", "", "in_flight, completed or failed")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Page offset")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print headers, bodies and curl")
	return cmd
}

func newSelfTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Ask a running server to verify its capture path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			c := client.New(apiURL)
			ok, err := c.SelfTest(ctx)
			if err != nil {
				return err
			}
			info, err := c.Debug(ctx)
			if err != nil {
				return err
			}
			p := newPrinter(cmd.OutOrStdout())
			fmt.Fprintf(p.w, "hook=%s logging=%t requests=%d/%d\n", info.HookType, info.IsLogging, info.RequestCount, info.MaxRequests)
			if !ok {
				fmt.Fprintln(p.w, p.paint(errorStyle, "self test request failed"))
				return errors.New("self test failed")
			}
			fmt.Fprintln(p.w, "self test ok")
			return nil
		},
	}
}

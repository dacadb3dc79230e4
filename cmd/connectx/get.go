package main

//
// The get subcommand
//

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"

	"github.com/ooni/connectx/internal/connector"
	"github.com/ooni/connectx/internal/stagex"
	oohttp "github.com/ooni/oohttp"
	"github.com/spf13/cobra"
)

// registerGet registers the get subcommand.
func registerGet(rootCmd *cobra.Command, globalOptions *Options, stdout, stderr io.Writer) {
	subCmd := &cobra.Command{
		Use:   "get URL",
		Short: "Connects to URL and issues an HTTP/1.1 GET request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return runGet(ctx, globalOptions, args[0], stdout, stderr)
		},
	}
	rootCmd.AddCommand(subCmd)
}

// runGet connects to rawURL and writes the response to stdout.
func runGet(ctx context.Context, options *Options, rawURL string, stdout, stderr io.Writer) error {
	logger := newLogger(options, stderr)
	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}
	// we only speak HTTP/1.1 on the connection
	cfg.ALPN = []string{"http/1.1"}
	stage, err := connector.New(cfg, logger, nil)
	if err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	conn, err := stagex.Run(ctx, stage, u)
	if err != nil {
		logger.Warnf("connectx: cannot connect to %s: %s", u.Redacted(), err.Error())
		return err
	}
	defer conn.Close()

	req, err := oohttp.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return err
	}
	req.Close = true
	if err := req.Write(conn); err != nil {
		return err
	}
	resp, err := oohttp.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fmt.Fprintf(stdout, "%s %s\n", resp.Proto, resp.Status)
	if err := resp.Header.Write(stdout); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "\n")
	_, err = io.Copy(stdout, resp.Body)
	return err
}

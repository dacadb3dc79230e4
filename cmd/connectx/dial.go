package main

//
// The dial subcommand
//

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"

	"github.com/ooni/connectx/internal/connector"
	"github.com/ooni/connectx/internal/model"
	"github.com/ooni/connectx/internal/netxlite"
	"github.com/ooni/connectx/internal/stagex"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

// registerDial registers the dial subcommand.
func registerDial(rootCmd *cobra.Command, globalOptions *Options, stdout, stderr io.Writer) {
	subCmd := &cobra.Command{
		Use:   "dial URL...",
		Short: "Connects to each URL in parallel and prints the TLS parameters",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return runDial(ctx, globalOptions, args, stdout, stderr)
		},
	}
	rootCmd.AddCommand(subCmd)
	flags := subCmd.Flags()

	flags.IntVarP(
		&globalOptions.Parallelism,
		"parallelism",
		"p",
		0,
		"number of parallel connection attempts (default: 4)",
	)

	flags.BoolVar(
		&globalOptions.First,
		"first",
		false,
		"race the URLs and only print the first connection established",
	)

	flags.BoolVar(
		&globalOptions.Metrics,
		"metrics",
		false,
		"print a summary of the pipeline metrics",
	)
}

// errDialFailed indicates that at least one connection failed.
var errDialFailed = fmt.Errorf("connectx: some connections failed")

// runDial connects to every URL and writes one line per URL to stdout.
func runDial(ctx context.Context, options *Options, rawURLs []string, stdout, stderr io.Writer) error {
	logger := newLogger(options, stderr)
	cfg, err := loadConfig(options)
	if err != nil {
		return err
	}
	connectorOptions := &connector.Options{}
	reg := prometheus.NewRegistry()
	if options.Metrics {
		if connectorOptions.Metrics, err = stagex.NewMetrics(reg); err != nil {
			return err
		}
	}
	stage, err := connector.New(cfg, logger, connectorOptions)
	if err != nil {
		return err
	}
	var inputs []*url.URL
	for _, rawURL := range rawURLs {
		u, err := url.Parse(rawURL)
		if err != nil {
			return err
		}
		inputs = append(inputs, u)
	}

	var failed bool
	if options.First {
		failed = dialFirst(ctx, stage, inputs, stdout)
	} else {
		failed = dialEach(ctx, stagex.Parallelism(cfg.Parallelism), stage, inputs, stdout)
	}

	if options.Metrics {
		families, err := reg.Gather()
		if err != nil {
			return err
		}
		printMetrics(stdout, families)
	}
	if failed {
		return errDialFailed
	}
	return nil
}

// dialEach connects to every input and prints one line per input.
func dialEach(ctx context.Context, parallelism stagex.Parallelism,
	stage connector.Stage, inputs []*url.URL, stdout io.Writer) (failed bool) {
	for idx, result := range stagex.Map(ctx, parallelism, stage, inputs...) {
		conn, err := result.Unwrap()
		if err != nil {
			failed = true
			fmt.Fprintf(stdout, "%s %s\n", inputs[idx].Redacted(), describeFailure(err))
			continue
		}
		fmt.Fprintf(stdout, "%s %s\n", inputs[idx].Redacted(), describeConn(conn))
		conn.Close()
	}
	return
}

// dialFirst races the inputs and prints the first connection established.
func dialFirst(ctx context.Context, stage connector.Stage, inputs []*url.URL, stdout io.Writer) (failed bool) {
	conn, err := stagex.First(ctx, stage, inputs...)
	if err != nil {
		fmt.Fprintf(stdout, "first %s\n", describeFailure(err))
		return true
	}
	defer conn.Close()
	fmt.Fprintf(stdout, "first %s %s\n", conn.RemoteAddr(), describeConn(conn))
	return false
}

// describeConn describes the negotiated TLS parameters.
func describeConn(conn model.TLSConn) string {
	state := conn.ConnectionState()
	return fmt.Sprintf("ok version=%s cipher=%s alpn=%q",
		netxlite.TLSVersionString(state.Version),
		netxlite.TLSCipherSuiteString(state.CipherSuite),
		state.NegotiatedProtocol)
}

// describeFailure describes a pipeline failure.
func describeFailure(err error) string {
	ew := netxlite.NewTopLevelGenericErrWrapper(err)
	return fmt.Sprintf("failed operation=%s failure=%s", ew.Operation, ew.Failure)
}

// Command connectx establishes TLS connections using the connectx pipeline.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/apex/log"
	"github.com/ooni/connectx/config"
	"github.com/ooni/connectx/internal/model"
	"github.com/spf13/cobra"
)

// Options contains the options you can set from the CLI.
type Options struct {
	ALPN        []string
	CAFile      string
	ConfigFile  string
	DNSServer   string
	Fingerprint string
	First       bool
	Metrics     bool
	Parallelism int
	Proxy       string
	ServerName  string
	Timeout     time.Duration
	Verbose     bool
}

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCommand creates the root command writing results to stdout
// and logs to stderr.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var globalOptions Options
	rootCmd := &cobra.Command{
		Use:          "connectx",
		Short:        "connectx establishes TLS connections",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	flags := rootCmd.PersistentFlags()

	flags.StringSliceVar(
		&globalOptions.ALPN,
		"alpn",
		[]string{},
		"ALPN protocol to negotiate (may be specified multiple times)",
	)

	flags.StringVar(
		&globalOptions.CAFile,
		"ca-file",
		"",
		"PEM file containing the trusted CAs (default: system trust store)",
	)

	flags.StringVarP(
		&globalOptions.ConfigFile,
		"config",
		"c",
		"",
		"HuJSON config file",
	)

	flags.StringVar(
		&globalOptions.DNSServer,
		"dns-server",
		"",
		"DNS-over-UDP server endpoint (e.g., 8.8.8.8:53)",
	)

	flags.StringVar(
		&globalOptions.Fingerprint,
		"fingerprint",
		"",
		"TLS fingerprint (one of: stdlib, chrome, firefox, randomized)",
	)

	flags.StringVar(
		&globalOptions.Proxy,
		"proxy",
		"",
		"socks5:// or socks5h:// proxy URL",
	)

	flags.StringVar(
		&globalOptions.ServerName,
		"server-name",
		"",
		"override the server name derived from the URL",
	)

	flags.DurationVar(
		&globalOptions.Timeout,
		"timeout",
		0,
		"timeout for each connection attempt (default: 30s)",
	)

	flags.BoolVarP(
		&globalOptions.Verbose,
		"verbose",
		"v",
		false,
		"increase verbosity level",
	)

	rootCmd.MarkFlagsMutuallyExclusive("proxy", "dns-server")

	registerGet(rootCmd, &globalOptions, stdout, stderr)
	registerDial(rootCmd, &globalOptions, stdout, stderr)
	return rootCmd
}

// newLogger creates the logger, honouring the verbose flag.
func newLogger(options *Options, stderr io.Writer) model.Logger {
	logger := &log.Logger{Level: log.InfoLevel, Handler: newLogHandler(stderr)}
	if options.Verbose {
		logger.Level = log.DebugLevel
	}
	return logger
}

// loadConfig loads the config file, if any, and applies the flags.
func loadConfig(options *Options) (*config.Config, error) {
	cfg := config.Default()
	if options.ConfigFile != "" {
		var err error
		if cfg, err = config.ReadConfig(options.ConfigFile); err != nil {
			return nil, fmt.Errorf("cannot load config: %w", err)
		}
	}
	if len(options.ALPN) > 0 {
		cfg.ALPN = options.ALPN
	}
	if options.CAFile != "" {
		cfg.CAFile = options.CAFile
	}
	if options.DNSServer != "" {
		cfg.DNSServer = options.DNSServer
	}
	if options.Fingerprint != "" {
		cfg.Fingerprint = options.Fingerprint
	}
	if options.Parallelism > 0 {
		cfg.Parallelism = options.Parallelism
	}
	if options.Proxy != "" {
		cfg.ProxyURL = options.Proxy
	}
	if options.ServerName != "" {
		cfg.ServerName = options.ServerName
	}
	if options.Timeout > 0 {
		cfg.Timeout = config.Duration(options.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

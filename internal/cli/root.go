package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build flags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Execute runs the command line against the process's arguments and
// standard streams.
func Execute() error {
	return NewRootCmd(os.Stdout, os.Stderr).Execute()
}

// NewRootCmd builds the scurl command tree writing to out and errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	o := &requestOptions{}

	rootCmd := &cobra.Command{
		Use:   "scurl [flags] <url>",
		Short: "A small curl-like HTTP/1.1 client over raw TCP",
		Long: `scurl - a small curl-like HTTP/1.1 client

scurl writes HTTP/1.1 requests straight onto a TCP connection and prints
text and JSON response bodies to standard output. Connections are always
plaintext; an https URL only changes the default port.

Examples:
  scurl http://example.com/
  scurl -v -L http://example.com/moved
  scurl -X PUT -H 'Content-Type: application/json' -d '{"a":1}' http://localhost:8080/items
  scurl -F file=@report.txt -F note=weekly http://localhost:8080/upload`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Unparseable arguments show the help text and end successfully.
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		cmd.Help() //nolint:errcheck
		return nil
	})

	// Request flags
	rootCmd.Flags().BoolVarP(&o.verbose, "verbose", "v", false, "Echo request and response headers to stderr")
	rootCmd.Flags().StringArrayVarP(&o.headers, "header", "H", nil, "Extra header line (repeatable, e.g., -H 'X-Custom: value')")
	rootCmd.Flags().StringVarP(&o.data, "data", "d", "", "Request body (implies POST without -X)")
	rootCmd.Flags().StringVarP(&o.method, "request", "X", "", "Request method (GET, POST, PUT, DELETE, HEAD)")
	rootCmd.Flags().BoolVarP(&o.location, "location", "L", false, "Follow redirects (at most 5)")
	rootCmd.Flags().StringArrayVarP(&o.forms, "form", "F", nil, "Multipart part: name=@path for a file, name=value for a field (repeatable)")

	// Connection flags
	rootCmd.Flags().DurationVar(&o.connectTimeout, "connect-timeout", 0, "Maximum time for each TCP connect")
	rootCmd.Flags().DurationVar(&o.maxTime, "max-time", 0, "Maximum socket I/O time for each connection")
	rootCmd.Flags().Float64Var(&o.rate, "rate", 0, "Maximum connection attempts per second (0 = unlimited)")

	// Output flags
	rootCmd.Flags().StringVar(&o.query, "query", "", "Print only this path of a JSON body (e.g., data.items.0.id)")
	rootCmd.Flags().StringVar(&o.history, "history", "", "Record the exchange in this SQLite database")
	rootCmd.Flags().BoolVar(&o.noColor, "no-color", false, "Disable colored trace output")
	rootCmd.Flags().BoolVar(&o.debug, "debug", false, "Log internal events to stderr")

	rootCmd.PersistentFlags().StringVar(&o.configPath, "config", "", "Config file (default $SCURL_CONFIG or ~/.config/scurl/config.yaml)")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(historyCmd(&o.configPath))
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scurl %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

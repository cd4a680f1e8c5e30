package cli

import (
	"fmt"
	"io"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

// Exit codes for the scurl CLI
const (
	// ExitSuccess indicates the exchange completed
	ExitSuccess = 0

	// ExitFailure indicates a redirect loop or an unclassified error
	ExitFailure = 1

	// ExitConfigError indicates an invalid URL, method, header, file or config file
	ExitConfigError = 2

	// ExitTransportError indicates a connection or socket failure
	ExitTransportError = 7

	// ExitParseError indicates a malformed response
	ExitParseError = 8

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	switch errdef.CodeOf(err) {
	case errdef.CodeConfig:
		return ExitConfigError
	case errdef.CodeUsage:
		return ExitUsageError
	case errdef.CodeTransport:
		return ExitTransportError
	case errdef.CodeParse:
		return ExitParseError
	default:
		return ExitFailure
	}
}

// PrintError writes the diagnostic for err to w.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}
	msg := errdef.Message(err)
	switch errdef.CodeOf(err) {
	case errdef.CodeRedirectLimit:
		fmt.Fprintln(w, "Redirection loop detected.")
		fmt.Fprintln(w, "Application Terminated")
	case errdef.CodeUsage:
		fmt.Fprintln(w, msg)
	case errdef.CodeTransport:
		fmt.Fprintf(w, "Cannot connect to host: %s\n", msg)
	case errdef.CodeParse:
		fmt.Fprintf(w, "Malformed response: %s\n", msg)
	case errdef.CodeConfig:
		fmt.Fprintf(w, "Invalid request: %s\n", msg)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

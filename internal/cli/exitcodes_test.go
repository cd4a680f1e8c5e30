package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowerfulfort/scurl/internal/errdef"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitSuccess},
		{errdef.New(errdef.CodeConfig, "bad url"), ExitConfigError},
		{errdef.New(errdef.CodeUsage, "host is missing."), ExitUsageError},
		{errdef.New(errdef.CodeTransport, "refused"), ExitTransportError},
		{errdef.New(errdef.CodeParse, "bad head"), ExitParseError},
		{errdef.New(errdef.CodeRedirectLimit, "loop"), ExitFailure},
		{errdef.New(errdef.CodeHistory, "db"), ExitFailure},
		{errors.New("plain"), ExitFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExitCode(tt.err), "%v", tt.err)
	}
}

func TestPrintError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errdef.New(errdef.CodeRedirectLimit, "gave up"), "Redirection loop detected.\nApplication Terminated\n"},
		{errdef.New(errdef.CodeUsage, "host is missing."), "host is missing.\n"},
		{errdef.Wrap(errdef.CodeTransport, errors.New("connection refused"), "connect to h:80"),
			"Cannot connect to host: connect to h:80: connection refused\n"},
		{errdef.New(errdef.CodeParse, "no colon"), "Malformed response: no colon\n"},
		{errdef.New(errdef.CodeConfig, "unknown method \"PATCH\""), "Invalid request: unknown method \"PATCH\"\n"},
		{errors.New("plain"), "Error: plain\n"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		PrintError(&buf, tt.err)
		assert.Equal(t, tt.want, buf.String())
	}
}

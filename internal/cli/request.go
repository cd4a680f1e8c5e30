package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flowerfulfort/scurl/internal/config"
	"github.com/flowerfulfort/scurl/internal/errdef"
	"github.com/flowerfulfort/scurl/internal/history"
	"github.com/flowerfulfort/scurl/internal/request"
	"github.com/flowerfulfort/scurl/internal/transport"
)

// requestOptions holds the root command's flag values.
type requestOptions struct {
	verbose  bool
	headers  []string
	data     string
	method   string
	location bool
	forms    []string

	configPath     string
	connectTimeout time.Duration
	maxTime        time.Duration
	rate           float64
	query          string
	history        string
	noColor        bool
	debug          bool
}

// flagConfig returns the flag values that take part in config merging.
func (o *requestOptions) flagConfig() *config.Config {
	c := &config.Config{
		Headers:        o.headers,
		ConnectTimeout: o.connectTimeout,
		MaxTime:        o.maxTime,
		Rate:           o.rate,
		History:        o.history,
	}
	if o.noColor {
		c.Color = config.BoolPtr(false)
	}
	return c
}

// run performs one exchange: configuration, request build, transport, and
// optional history recording.
func (o *requestOptions) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if cmd.Flags().NFlag() == 0 {
			return cmd.Help()
		}
		return errdef.New(errdef.CodeUsage, "host is missing.")
	}
	if len(args) > 1 {
		return errdef.New(errdef.CodeUsage, "unexpected argument %q: only one URL may be given", args[1])
	}

	if err := (&config.Config{ConnectTimeout: o.connectTimeout, MaxTime: o.maxTime, Rate: o.rate}).Validate(); err != nil {
		return errdef.Wrap(errdef.CodeUsage, err, "invalid flag")
	}

	fileCfg, path, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	cfg := fileCfg.Merge(o.flagConfig())
	if !cfg.GetColor() {
		color.NoColor = true
	}

	logger := newLogger(o.debug, cmd.ErrOrStderr())
	logger.Debug("configuration loaded",
		"file", path,
		"defaults", fileCfg.IsDefault(),
		"connect_timeout", cfg.ConnectTimeout,
		"max_time", cfg.MaxTime,
		"rate", cfg.Rate,
	)

	reqCfg, err := o.buildRequest(cmd, args[0], cfg.Headers)
	if err != nil {
		return err
	}

	opts := transport.ClientOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		Timeout:        cfg.MaxTime,
		MaxRPS:         cfg.Rate,
		Output:         cmd.OutOrStdout(),
		Trace:          cmd.ErrOrStderr(),
		Logger:         logger,
	}
	if o.query != "" {
		opts.BodyFilter = queryFilter(o.query)
	}
	client := transport.NewClient(opts)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	res, runErr := client.Do(ctx, reqCfg)

	stats := client.Stats()
	logger.Debug("exchange finished",
		"attempts", stats.TotalAttempts,
		"total", stats.TotalDuration,
		"avg", stats.AvgDuration,
		"state", res.State.String(),
	)

	if cfg.History != "" {
		if err := recordHistory(cfg.History, res, runErr); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "[!] Failed to record history: %v\n", err)
		}
	}
	return runErr
}

// buildRequest turns the flags into a request configuration. Config file
// headers come before -H headers.
func (o *requestOptions) buildRequest(cmd *cobra.Command, origin string, headers []string) (*request.Config, error) {
	b := request.NewBuilder().
		Target(origin).
		Header(headers...).
		FollowRedirects(o.location).
		Verbose(o.verbose)

	if cmd.Flags().Changed("request") {
		b.Method(o.method)
	}
	if cmd.Flags().Changed("data") {
		b.Body(o.data)
	}
	if len(o.forms) > 0 {
		b.Multipart(o.forms...)
	}
	return b.Build()
}

// recordHistory saves the exchange outcome. It runs after the exchange
// context may have been cancelled, so it uses its own.
func recordHistory(dbPath string, res *transport.Result, runErr error) error {
	store, err := history.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Save(context.Background(), history.FromResult(res, runErr))
}

// newLogger returns a debug logger on w, or a discarding one.
func newLogger(debug bool, w io.Writer) *slog.Logger {
	if !debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
